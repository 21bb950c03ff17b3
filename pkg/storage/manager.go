package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Stdout is the target name for standard output
const Stdout = "-"

// LabelPlaceholder in a target is replaced by the task label
const LabelPlaceholder = "{label}"

// Sink is the destination of one export task
type Sink interface {
	io.WriteCloser
	// Name is the file path, or "-" for standard output
	Name() string
}

// Manager opens sinks. Files opened through it are tracked until closed.
type Manager struct {
	stdout  *sharedWriter
	mu      sync.Mutex
	open    map[string]bool
	written map[string]int64
}

// NewManager creates a manager whose standard output sink writes to stdout
func NewManager(stdout io.Writer) *Manager {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Manager{
		stdout:  &sharedWriter{w: stdout},
		open:    make(map[string]bool),
		written: make(map[string]int64),
	}
}

// Open returns the sink for target. Files are created or truncated, along
// with any missing parent directories. A file may only be open once.
func (m *Manager) Open(target string) (Sink, error) {
	if target == "" || target == Stdout {
		return &stdoutSink{manager: m}, nil
	}

	m.mu.Lock()
	if m.open[target] {
		m.mu.Unlock()
		return nil, fmt.Errorf("output file %s is already in use", target)
	}
	m.open[target] = true
	m.mu.Unlock()

	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			m.release(target)
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(target)
	if err != nil {
		m.release(target)
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &fileSink{file: file, manager: m}, nil
}

// Written returns the bytes written so far to target
func (m *Manager) Written(target string) int64 {
	if target == "" {
		target = Stdout
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written[target]
}

func (m *Manager) release(target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, target)
}

func (m *Manager) count(target string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written[target] += int64(n)
}

// ExpandTargets turns the requested outputs into one target per label.
// No outputs means standard output for every label; a single output
// containing {label} becomes one file per label. Anything else is returned
// unchanged and must already pair up with labels.
func ExpandTargets(labels, outputs []string) []string {
	switch {
	case len(outputs) == 0:
		targets := make([]string, len(labels))
		for i := range targets {
			targets[i] = Stdout
		}
		return targets
	case len(outputs) == 1 && strings.Contains(outputs[0], LabelPlaceholder):
		targets := make([]string, len(labels))
		for i, label := range labels {
			targets[i] = strings.ReplaceAll(outputs[0], LabelPlaceholder, label)
		}
		return targets
	default:
		return outputs
	}
}

type sharedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *sharedWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type stdoutSink struct {
	manager *Manager
}

func (s *stdoutSink) Write(p []byte) (int, error) {
	n, err := s.manager.stdout.Write(p)
	s.manager.count(Stdout, n)
	return n, err
}

// Close leaves standard output open for other tasks
func (s *stdoutSink) Close() error { return nil }

func (s *stdoutSink) Name() string { return Stdout }

type fileSink struct {
	file    *os.File
	manager *Manager
}

func (f *fileSink) Write(p []byte) (int, error) {
	n, err := f.file.Write(p)
	f.manager.count(f.file.Name(), n)
	return n, err
}

func (f *fileSink) Close() error {
	defer f.manager.release(f.file.Name())
	return f.file.Close()
}

func (f *fileSink) Name() string { return f.file.Name() }
