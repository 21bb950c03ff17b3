package tui

import (
	"time"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"cdli/pkg/progress"
)

const (
	labelWidth    = 30
	minBarWidth   = 10
	defaultWidth  = 80
	barMarginCols = 45
)

// Model is the bubbletea model of the export view. It only ever shows the
// latest snapshot received from the tracker.
type Model struct {
	title   string
	spinner spinner.Model
	bar     progressbar.Model

	entries   []progress.Entry
	width     int
	height    int
	start     time.Time
	finished  bool
	interrupt func()
}

// NewModel creates a model titled title. interrupt, if not nil, is called
// when the user presses ctrl+c.
func NewModel(title string, interrupt func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle.Padding(0)

	return Model{
		title:     title,
		spinner:   s,
		bar:       progressbar.New(progressbar.WithDefaultGradient(), progressbar.WithoutPercentage()),
		width:     defaultWidth,
		start:     time.Now(),
		interrupt: interrupt,
	}
}

// Init starts the spinner
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Entries returns the snapshot currently displayed
func (m Model) Entries() []progress.Entry {
	return m.entries
}

// counts returns how many entries are done, failed and still running
func (m Model) counts() (done, failed, running int) {
	for _, e := range m.entries {
		switch {
		case e.State.Failed():
			failed++
		case e.State.Status == progress.Done:
			done++
		default:
			running++
		}
	}
	return done, failed, running
}

func (m Model) barWidth() int {
	return max(m.width-barMarginCols, minBarWidth)
}
