package progress

import (
	"fmt"
	"strings"
)

// Status of one label. Values are ordered.
type Status int

const (
	SettingUp Status = iota
	Running
	Done
)

func (s Status) String() string {
	switch s {
	case SettingUp:
		return "setting up"
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is the accumulated progress of one label
type State struct {
	// Page is the page most recently fetched; 0 before the first response
	Page int
	// LastPage is the final page if the server advertised one, else 0
	LastPage int
	Retry    int
	Error    string
	Status   Status
}

// Failed reports whether the label ended with an error
func (s State) Failed() bool {
	return s.Error != ""
}

// Terminal reports whether no further transitions are accepted
func (s State) Terminal() bool {
	return s.Failed() || s.Status == Done
}

// Bar renders the state as a progress message of the given bar width:
// the error text if failed, "page: N" without a known last page, or
// "[====>    ] current/last" otherwise, followed by ", retry N" while retrying.
func Bar(s State, size int) string {
	if s.Failed() {
		return s.Error
	}

	var message string
	switch {
	case s.Page <= 0:
		message = ""
	case s.LastPage <= 0:
		message = fmt.Sprintf("page: %d", s.Page)
	default:
		if size < 0 {
			size = 0
		}
		filled := Filled(size, s.Page, s.LastPage)
		bar := strings.Repeat("=", filled) + strings.Repeat(" ", size-filled)
		bar = strings.Replace(bar, "= ", "> ", 1)
		message = fmt.Sprintf("[%s] %d/%d", bar, s.Page, s.LastPage)
	}

	if s.Retry > 0 {
		message += fmt.Sprintf(", retry %d", s.Retry)
	}

	return message
}

// Filled returns how many of size bar units represent current/last.
// Any progress past page zero shows at least one unit.
func Filled(size, current, last int) int {
	if size <= 0 || last <= 0 {
		return 0
	}

	filled := size * current / last
	if filled == 0 && current > 0 {
		filled = 1
	}
	if filled > size {
		filled = size
	}
	if filled < 0 {
		filled = 0
	}
	return filled
}
