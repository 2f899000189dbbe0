// Package home is the terminal rendition of the home view.
package home

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/service"
)

// Controller is the view state the terminal drives. *service.HomeView
// implements it.
type Controller interface {
	Mount(ctx context.Context)
	ToggleSection(ctx context.Context, name string) (models.SectionVisibility, error)
	Connect(ctx context.Context, platform string) (string, error)
	SchedulePost(ctx context.Context, post models.ComposedPost) error
	DismissNotice()
	Snapshot() service.HomeSnapshot
}

type mode int

const (
	modeBrowse mode = iota
	modeCompose
)

// Form fields of the post composer, in focus order.
const (
	fieldCaption = iota
	fieldDate
	fieldTime
	fieldImage
	fieldCount
)

type Options struct {
	Location *time.Location
	// OpenURL navigates the viewer to an authorization page.
	OpenURL func(url string) error
	// ReadFile loads the image attached to a post.
	ReadFile func(path string) ([]byte, error)
	Now      func() time.Time
}

// Model is the Bubbletea model of the home view.
type Model struct {
	// Dependencies
	ctrl     Controller
	openURL  func(string) error
	readFile func(string) ([]byte, error)
	loc      *time.Location
	now      func() time.Time

	// Navigation
	mode     mode
	cursor   int
	width    int
	height   int
	quitting bool

	// State
	snap    service.HomeSnapshot
	loading bool
	busy    bool
	status  string
	lastURL string

	// Components
	inputs  []textinput.Model
	focus   int
	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

func NewModel(ctrl Controller, opts Options) Model {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	openURL := opts.OpenURL
	if openURL == nil {
		openURL = OpenBrowser
	}
	readFile := opts.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		ctrl:     ctrl,
		openURL:  openURL,
		readFile: readFile,
		loc:      loc,
		now:      now,
		snap:     ctrl.Snapshot(),
		loading:  true,
		inputs:   newInputs(),
		spinner:  s,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

func newInputs() []textinput.Model {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldCaption] = textinput.New()
	inputs[fieldCaption].Placeholder = "What do you want to share?"
	inputs[fieldCaption].CharLimit = 2200
	inputs[fieldCaption].Width = 60

	inputs[fieldDate] = textinput.New()
	inputs[fieldDate].Placeholder = "YYYY-MM-DD"
	inputs[fieldDate].CharLimit = 10
	inputs[fieldDate].Width = 12

	inputs[fieldTime] = textinput.New()
	inputs[fieldTime].Placeholder = "HH:MM"
	inputs[fieldTime].CharLimit = 8
	inputs[fieldTime].Width = 10

	inputs[fieldImage] = textinput.New()
	inputs[fieldImage].Placeholder = "Path to image (optional)"
	inputs[fieldImage].CharLimit = 512
	inputs[fieldImage].Width = 60

	return inputs
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		mount(m.ctrl),
		m.spinner.Tick,
	)
}

// selected is the section under the cursor.
func (m Model) selected() models.Section {
	return models.Sections[m.cursor]
}

// LastURL is the most recent authorization URL handed to the browser.
func (m Model) LastURL() string {
	return m.lastURL
}
