// Package tui is a full-screen alternative to the line reporter, built on
// bubbletea.
package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"cdli/pkg/progress"
)

// TUI runs the bubbletea program and feeds it tracker snapshots.
// It implements progress.Renderer.
type TUI struct {
	program *tea.Program
	done    chan error
}

// New creates a TUI drawing on out
func New(title string, out io.Writer, interrupt func(), opts ...tea.ProgramOption) *TUI {
	opts = append([]tea.ProgramOption{tea.WithOutput(out)}, opts...)
	return &TUI{
		program: tea.NewProgram(NewModel(title, interrupt), opts...),
		done:    make(chan error, 1),
	}
}

// Start runs the program in the background
func (t *TUI) Start() {
	go func() {
		_, err := t.program.Run()
		t.done <- err
	}()
}

// Render implements progress.Renderer
func (t *TUI) Render(entries []progress.Entry) {
	snapshot := make([]progress.Entry, len(entries))
	copy(snapshot, entries)
	t.program.Send(EntriesMsg(snapshot))
}

// Stop draws the final frame and waits for the program to exit
func (t *TUI) Stop() error {
	t.program.Send(FinishedMsg{})
	return <-t.done
}
