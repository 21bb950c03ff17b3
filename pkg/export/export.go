// Package export runs page walks for many resources at once and writes each
// one to its own sink.
package export

import (
	"context"
	"fmt"
	"iter"

	"golang.org/x/sync/errgroup"

	errs "cdli/pkg/errors"
	"cdli/pkg/logger"
	"cdli/pkg/progress"
	"cdli/pkg/storage"
)

// SearchLabel is the progress label of a search
const SearchLabel = "search"

// Walker produces the pages of one resource
type Walker interface {
	Pages(ctx context.Context, path, format, label string) (iter.Seq2[[]byte, error], error)
}

// Opener opens the sink of a task
type Opener interface {
	Open(target string) (storage.Sink, error)
}

// Outcome is the settled result of one task
type Outcome struct {
	Label  string
	Target string
	Pages  int
	Bytes  int64
	Err    error
}

// Fulfilled reports whether the task completed without error
func (o Outcome) Fulfilled() bool {
	return o.Err == nil
}

// Rejected returns the outcomes that failed
func Rejected(outcomes []Outcome) []Outcome {
	var rejected []Outcome
	for _, o := range outcomes {
		if !o.Fulfilled() {
			rejected = append(rejected, o)
		}
	}
	return rejected
}

// Orchestrator runs export tasks
type Orchestrator struct {
	walker      Walker
	sinks       Opener
	listener    progress.Listener
	logger      logger.Logger
	concurrency int
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithListener receives the SettingUp and sink error events of each task.
// Page events come from the walker itself.
func WithListener(l progress.Listener) Option {
	return func(o *Orchestrator) { o.listener = l }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithConcurrency caps how many tasks run at the same time (0 = no cap)
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.concurrency = n }
}

// New creates an orchestrator
func New(walker Walker, sinks Opener, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		walker:   walker,
		sinks:    sinks,
		listener: progress.Nop,
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Export fetches every label in format and writes it to the target at the
// same position. Tasks run concurrently and independently: a failing task
// never cancels the others. The returned outcomes are in label order. An
// error is returned only for invalid input, before any task starts.
func (o *Orchestrator) Export(ctx context.Context, format string, labels, targets []string) ([]Outcome, error) {
	if len(labels) != len(targets) {
		return nil, errs.Input(fmt.Sprintf("%d entities but %d output files", len(labels), len(targets)))
	}

	o.resetProgress()
	o.logger.InfoWithFields("export started", map[string]interface{}{
		"format":   format,
		"entities": labels,
	})

	outcomes := make([]Outcome, len(labels))

	var g errgroup.Group
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	for i := range labels {
		g.Go(func() error {
			outcomes[i] = o.run(ctx, labels[i], format, labels[i], targets[i])
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, nil
}

// Search runs the query as a single task labelled "search" and returns its
// failure, if any
func (o *Orchestrator) Search(ctx context.Context, format, query, target string) error {
	o.resetProgress()
	outcome := o.run(ctx, SearchLabel, format, "search?"+query, target)
	return outcome.Err
}

// resetProgress clears the states left by a previous call when the listener
// keeps them, so every call displays only its own tasks
func (o *Orchestrator) resetProgress() {
	if r, ok := o.listener.(interface{ Reset() }); ok {
		r.Reset()
	}
}

func (o *Orchestrator) run(ctx context.Context, label, format, path, target string) (out Outcome) {
	out = Outcome{Label: label, Target: target}
	defer func() {
		logger.LogTaskSettled(o.logger, label, out.Pages, out.Err)
	}()

	o.listener.OnState(progress.Event{Label: label, Kind: progress.KindSettingUp})

	sink, err := o.sinks.Open(target)
	if err != nil {
		out.Err = err
		o.listener.OnState(progress.Event{Label: label, Kind: progress.KindError, Err: err})
		return out
	}
	defer func() {
		if err := sink.Close(); err != nil && out.Err == nil {
			out.Err = fmt.Errorf("close %s: %w", sink.Name(), err)
		}
	}()

	pages, err := o.walker.Pages(ctx, path, format, label)
	if err != nil {
		out.Err = err
		return out
	}

	for body, err := range pages {
		if err != nil {
			out.Err = err
			break
		}
		n, err := sink.Write(body)
		out.Bytes += int64(n)
		if err != nil {
			out.Err = fmt.Errorf("write %s: %w", sink.Name(), err)
			o.listener.OnState(progress.Event{Label: label, Kind: progress.KindError, Err: out.Err})
			break
		}
		out.Pages++
	}

	return out
}
