// Package progress tracks the live state of every export task.
//
// The page walker reports what happens to a label through a Listener. A
// Tracker folds those events into one State per label, enforcing that the
// status only moves forward (SettingUp, Running, Done) and that an error is
// final. Every accepted event is handed to a Renderer while the tracker's
// lock is still held, so concurrent tasks never interleave partial redraws.
package progress
