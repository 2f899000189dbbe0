package home

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/maheshrc27/postpilot/internal/models"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case mountedMsg:
		m.loading = false
		m.snap = msg.snap
		return m, nil

	case connectDoneMsg:
		m.busy = false
		m.snap = m.ctrl.Snapshot()
		if msg.err != nil {
			return m, nil
		}
		if msg.url == "" {
			m.status = "Connecting to " + msg.platform + " is not available yet"
			return m, nil
		}
		m.lastURL = msg.url
		return m, openURL(m.openURL, msg.url)

	case browserOpenedMsg:
		if msg.err != nil {
			slog.Warn("could not open browser", slog.String("url", msg.url), slog.Any("error", msg.err))
			m.status = "Open this link to continue: " + msg.url
			return m, nil
		}
		m.status = "✓ Continue in your browser: " + msg.url
		return m, nil

	case scheduleDoneMsg:
		m.busy = false
		m.snap = msg.snap
		if msg.err != nil {
			if !errors.Is(msg.err, models.ErrInvalidSchedule) && msg.snap.Notice == nil {
				m.status = msg.err.Error()
			}
			return m, nil
		}
		m.status = "✓ Post scheduled"
		m.mode = modeBrowse
		m.inputs = newInputs()
		m.focus = 0
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.mode == modeCompose {
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))) {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.mode {
	case modeCompose:
		return m.handleComposeKeys(msg)
	default:
		return m.handleBrowseKeys(msg)
	}
}

func (m Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(models.Sections)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		// Toggling only writes local preferences, so it runs inline.
		if _, err := m.ctrl.ToggleSection(context.Background(), string(m.selected())); err != nil {
			m.status = err.Error()
		}
		m.snap = m.ctrl.Snapshot()
		return m, nil

	case key.Matches(msg, m.keys.Connect):
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, connect(m.ctrl, "instagram")

	case key.Matches(msg, m.keys.Compose):
		if !m.snap.Sections.Schedule {
			if _, err := m.ctrl.ToggleSection(context.Background(), string(models.SectionSchedule)); err != nil {
				m.status = err.Error()
				return m, nil
			}
			m.snap = m.ctrl.Snapshot()
		}
		m.mode = modeCompose
		m.focus = fieldCaption
		if m.inputs[fieldDate].Value() == "" {
			m.inputs[fieldDate].SetValue(m.now().In(m.loc).Format("2006-01-02"))
		}
		return m, m.focusInput()

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, mount(m.ctrl)

	case key.Matches(msg, m.keys.Dismiss):
		m.ctrl.DismissNotice()
		m.snap = m.ctrl.Snapshot()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	return m, nil
}

func (m Model) handleComposeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeBrowse
		m.blurInputs()
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		m.focus = (m.focus + 1) % fieldCount
		return m, m.focusInput()

	case key.Matches(msg, m.keys.PrevField):
		m.focus--
		if m.focus < 0 {
			m.focus = fieldCount - 1
		}
		return m, m.focusInput()

	case key.Matches(msg, m.keys.Submit),
		key.Matches(msg, key.NewBinding(key.WithKeys("enter"))) && m.focus == fieldCount-1:
		return m.submit()

	case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
		m.focus = (m.focus + 1) % fieldCount
		return m, m.focusInput()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	post := models.ComposedPost{
		Content: m.inputs[fieldCaption].Value(),
		Date:    strings.TrimSpace(m.inputs[fieldDate].Value()),
		Time:    strings.TrimSpace(m.inputs[fieldTime].Value()),
	}
	m.busy = true
	m.status = ""
	return m, schedule(m.ctrl, m.readFile, post, strings.TrimSpace(m.inputs[fieldImage].Value()))
}

// focusInput focuses the current field and blurs the others.
func (m *Model) focusInput() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.focus {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) blurInputs() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}
