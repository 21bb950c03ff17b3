package progress

import (
	"sort"
	"sync"
)

// Entry is one label with its state, as passed to a Renderer
type Entry struct {
	Label string
	State State
}

// Renderer draws a snapshot of every tracked label
type Renderer interface {
	Render(entries []Entry)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func([]Entry)

// Render calls f(entries)
func (f RendererFunc) Render(entries []Entry) { f(entries) }

// Tracker is the guarded progress map shared by all tasks of one invocation.
// It implements Listener.
type Tracker struct {
	mu       sync.Mutex
	order    []string
	states   map[string]*State
	renderer Renderer
}

// NewTracker creates a tracker that redraws r after every accepted event.
// r may be nil.
func NewTracker(r Renderer) *Tracker {
	return &Tracker{
		states:   make(map[string]*State),
		renderer: r,
	}
}

// OnState applies e and renders in one critical section
func (t *Tracker) OnState(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.apply(e) {
		return
	}
	if t.renderer != nil {
		t.renderer.Render(t.snapshotLocked())
	}
}

func (t *Tracker) apply(e Event) bool {
	s, ok := t.states[e.Label]
	if !ok {
		s = &State{}
		t.states[e.Label] = s
		t.order = append(t.order, e.Label)
	}
	if s.Terminal() {
		return false
	}

	switch e.Kind {
	case KindSettingUp:
		// status only ever moves forward; SettingUp is the zero value
	case KindRetry:
		s.Retry = e.Retry
	case KindRunning:
		s.Retry = 0
		s.Status = Running
	case KindPages:
		s.Page = e.Page
		s.LastPage = e.LastPage
		if s.Status < Running {
			s.Status = Running
		}
	case KindError:
		if e.Err != nil {
			s.Error = e.Err.Error()
		} else {
			s.Error = "failed"
		}
	case KindDone:
		s.Retry = 0
		s.Status = Done
	default:
		return false
	}
	return true
}

// State returns the current state of label
func (t *Tracker) State(label string) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[label]
	if !ok {
		return State{}, false
	}
	return *s, true
}

// Snapshot returns every label ordered by status, then by first appearance
func (t *Tracker) Snapshot() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() []Entry {
	entries := make([]Entry, 0, len(t.order))
	for _, label := range t.order {
		entries = append(entries, Entry{Label: label, State: *t.states[label]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].State.Status < entries[j].State.Status
	})
	return entries
}

// Reset discards all states. The orchestrator calls it when a new export or
// search starts.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.order = nil
	t.states = make(map[string]*State)
}
