package models

import (
	"encoding/json"
	"time"
)

// InstantLayout is the canonical absolute-time form, e.g. 2024-01-01T10:00:00.000Z.
const InstantLayout = "2006-01-02T15:04:05.000Z07:00"

func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

const (
	MediaTypePhoto    = "photo"
	MediaTypeCarousel = "carousel"
)

type PendingPost struct {
	Caption string
	// HasCaption is set when the backend sent caption as a string.
	HasCaption        bool
	ScheduledTime     time.Time
	ScheduledTimeUser time.Time
	// Extra holds the backend fields this view does not interpret.
	Extra map[string]json.RawMessage
}

func (p PendingPost) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+3)
	for k, v := range p.Extra {
		out[k] = v
	}
	if p.HasCaption {
		out["caption"] = p.Caption
	}
	out["scheduled_time"] = FormatInstant(p.ScheduledTime)
	out["scheduled_time_user"] = FormatInstant(p.ScheduledTimeUser)
	return json.Marshal(out)
}

type MediaFile struct {
	Name string
	Data []byte
}

// ComposedPost is what the composer hands over for scheduling.
type ComposedPost struct {
	Content string
	Image   *MediaFile
	Date    string // YYYY-MM-DD
	Time    string // HH:MM or HH:MM:SS, viewer local time
}

func (p ComposedPost) MediaType() string {
	if p.Image != nil && len(p.Image.Data) > 0 {
		return MediaTypePhoto
	}
	return MediaTypeCarousel
}
