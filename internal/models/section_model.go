package models

// SectionsPreferenceKey is the fixed key the section visibility record is stored under.
const SectionsPreferenceKey = "openSections"

// Section identifies one of the collapsible regions of the home view.
type Section string

const (
	SectionAccounts       Section = "accounts"
	SectionSchedule       Section = "schedule"
	SectionScheduledPosts Section = "scheduledPosts"
)

// Sections lists every section in display order.
var Sections = []Section{SectionAccounts, SectionSchedule, SectionScheduledPosts}

func ParseSection(name string) (Section, error) {
	for _, s := range Sections {
		if string(s) == name {
			return s, nil
		}
	}
	return "", &UnknownSectionError{Name: name}
}

func (s Section) Title() string {
	switch s {
	case SectionAccounts:
		return "Connect Your Accounts"
	case SectionSchedule:
		return "Schedule a Post"
	case SectionScheduledPosts:
		return "Scheduled Posts"
	default:
		return string(s)
	}
}

type SectionVisibility struct {
	Accounts       bool `json:"accounts"`
	Schedule       bool `json:"schedule"`
	ScheduledPosts bool `json:"scheduledPosts"`
}

func (v SectionVisibility) IsOpen(s Section) bool {
	switch s {
	case SectionAccounts:
		return v.Accounts
	case SectionSchedule:
		return v.Schedule
	case SectionScheduledPosts:
		return v.ScheduledPosts
	}
	return false
}

// Toggled returns a copy of v with only the flag of s flipped.
func (v SectionVisibility) Toggled(s Section) (SectionVisibility, error) {
	switch s {
	case SectionAccounts:
		v.Accounts = !v.Accounts
	case SectionSchedule:
		v.Schedule = !v.Schedule
	case SectionScheduledPosts:
		v.ScheduledPosts = !v.ScheduledPosts
	default:
		return v, &UnknownSectionError{Name: string(s)}
	}
	return v, nil
}
