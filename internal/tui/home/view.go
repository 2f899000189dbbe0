package home

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/pkg/utils"
)

// Styles with adaptive colors for light/dark backgrounds
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"}).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true)

	selectedSectionStyle = sectionStyle.
				Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"})

	bodyStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "250"})

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "9"}).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "130", Dark: "214"})

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "34", Dark: "10"}).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"})

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "160", Dark: "9"}).
			Padding(0, 1)

	activeInputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"})

	inactiveInputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "250"})
)

const scheduledLayout = "Jan 2, 2006, 3:04:05 PM"

// View renders the current view
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Welcome, %s!", m.snap.Viewer.Username)))
	b.WriteString("\n")

	if notice := m.renderNotice(); notice != "" {
		b.WriteString(notice)
		b.WriteString("\n\n")
	}

	for i, s := range models.Sections {
		b.WriteString(m.renderSection(i, s))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.loading || m.busy:
		b.WriteString(m.spinner.View() + " " + mutedStyle.Render("Talking to PostPilot..."))
		b.WriteString("\n")
	case m.status != "":
		style := mutedStyle
		if strings.HasPrefix(m.status, "✓") {
			style = successStyle
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}

	if m.mode == modeCompose {
		b.WriteString(m.help.View(composeKeys{m.keys}))
	} else {
		b.WriteString(m.help.View(browseKeys{m.keys}))
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderNotice() string {
	n := m.snap.Notice
	if n == nil {
		return ""
	}

	switch n.Severity {
	case models.SeverityAlert:
		return alertStyle.Render(errorStyle.Render(n.Message) + "\n" + mutedStyle.Render("press x to dismiss"))
	case models.SeverityError:
		return errorStyle.Render("✗ " + n.Message)
	case models.SeverityWarning:
		return warningStyle.Render("⚠ " + n.Message)
	default:
		return mutedStyle.Render(n.Message)
	}
}

func (m Model) renderSection(index int, s models.Section) string {
	open := m.snap.Sections.IsOpen(s)

	chevron := "▼"
	if open {
		chevron = "▲"
	}
	pointer := "  "
	style := sectionStyle
	if index == m.cursor && m.mode == modeBrowse {
		pointer = "▸ "
		style = selectedSectionStyle
	}
	header := pointer + style.Render(s.Title()+" "+chevron)

	if !open {
		return header
	}

	var body string
	switch s {
	case models.SectionAccounts:
		body = m.renderAccounts()
	case models.SectionSchedule:
		body = m.renderComposer()
	case models.SectionScheduledPosts:
		body = m.renderPosts()
	}
	return header + "\n" + bodyStyle.Render(body)
}

func (m Model) renderAccounts() string {
	var lines []string
	if len(m.snap.Accounts) == 0 {
		lines = append(lines, mutedStyle.Render("No connected accounts."))
	}
	for _, a := range m.snap.Accounts {
		platform := a.Platform()
		if platform == "" {
			platform = "account"
		}
		lines = append(lines, fmt.Sprintf("• %s: %s", platform, a.DisplayName()))
	}
	lines = append(lines, mutedStyle.Render("[c] Connect Instagram"))
	return strings.Join(lines, "\n")
}

func (m Model) renderComposer() string {
	if m.mode != modeCompose {
		return mutedStyle.Render("[n] Compose a new post")
	}

	labels := [fieldCount]string{"Caption", "Date", "Time", "Image"}
	var lines []string
	for i, input := range m.inputs {
		style := inactiveInputStyle
		if i == m.focus {
			style = activeInputStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%-8s", labels[i]))+" "+input.View())
	}
	lines = append(lines, mutedStyle.Render("Times are in "+m.loc.String()+"."))
	return strings.Join(lines, "\n")
}

func (m Model) renderPosts() string {
	if len(m.snap.Posts) == 0 {
		return mutedStyle.Render("No scheduled posts.")
	}

	var lines []string
	for _, p := range m.snap.Posts {
		lines = append(lines, "Scheduled for: "+p.ScheduledTimeUser.In(m.loc).Format(scheduledLayout))
		if caption := utils.PlainCaption(p.Caption); caption != "" {
			lines = append(lines, mutedStyle.Render("  "+caption))
		}
	}
	return strings.Join(lines, "\n")
}
