package progress

// Kind identifies what an Event reports
type Kind int

const (
	// KindSettingUp is emitted when a task is created, before its sink opens
	KindSettingUp Kind = iota
	// KindRetry reports a gateway timeout about to be retried
	KindRetry
	// KindRunning reports a successful response; it clears the retry count
	KindRunning
	// KindPages carries page numbers derived from the pagination links
	KindPages
	// KindError is terminal
	KindError
	// KindDone is emitted once the last page was yielded
	KindDone
)

// Event is a partial state update for one label
type Event struct {
	Label    string
	Kind     Kind
	Retry    int
	Page     int
	LastPage int
	Err      error
}

// Listener receives state events. Implementations must be safe for
// concurrent use; all tasks share one listener.
type Listener interface {
	OnState(Event)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(Event)

// OnState calls f(e)
func (f ListenerFunc) OnState(e Event) { f(e) }

// Nop discards all events
var Nop Listener = ListenerFunc(func(Event) {})

// Multi fans every event out to each listener in order
func Multi(listeners ...Listener) Listener {
	return ListenerFunc(func(e Event) {
		for _, l := range listeners {
			if l != nil {
				l.OnState(e)
			}
		}
	})
}
