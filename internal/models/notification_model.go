package models

import "time"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	// SeverityAlert interrupts the viewer instead of showing inline.
	SeverityAlert Severity = "alert"
)

type Category string

const (
	CategoryAccounts    Category = "accounts"
	CategoryPosts       Category = "posts"
	CategoryConnect     Category = "connect"
	CategorySchedule    Category = "schedule"
	CategoryPreferences Category = "preferences"
)

type Notification struct {
	Severity  Severity  `json:"severity"`
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
