package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"cdli/pkg/auth"
	"cdli/pkg/catalogue"
	"cdli/pkg/config"
	"cdli/pkg/export"
	"cdli/pkg/progress"
	"cdli/pkg/ratelimit"
	"cdli/pkg/retry"
	"cdli/pkg/storage"
	"cdli/pkg/ui"
	"cdli/pkg/ui/tui"
)

// display is the progress view of one command
type display struct {
	renderer progress.Renderer
	start    func()
	stop     func()
}

func newDisplay(title string, interrupt func()) display {
	switch cfg.Progress.Mode {
	case config.ProgressTUI:
		t := tui.New(title, os.Stderr, interrupt)
		return display{
			renderer: t,
			start:    t.Start,
			stop: func() {
				if err := t.Stop(); err != nil {
					log.WithError(err).Warn("progress display failed")
				}
			},
		}
	case config.ProgressNone:
		return display{renderer: ui.Quiet, start: func() {}, stop: func() {}}
	default:
		return display{renderer: ui.NewLineReporter(), start: func() {}, stop: func() {}}
	}
}

// invocation is everything a data command needs: a client that reports to
// the tracker, and an orchestrator writing to stdout or files
type invocation struct {
	client  *catalogue.Client
	orch    *export.Orchestrator
	display display
}

// checkSettings rejects a bad configuration or an unknown format before any
// output file is created or truncated
func checkSettings(c *config.Config) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := catalogue.MIMEType(c.Export.Format); err != nil {
		return err
	}
	return nil
}

func newInvocation(ctx context.Context, title string, interrupt func()) (*invocation, error) {
	if err := checkSettings(cfg); err != nil {
		return nil, err
	}

	d := newDisplay(title, interrupt)
	tracker := progress.NewTracker(d.renderer)

	client, err := catalogue.New(cfg.Catalogue.Host,
		catalogue.WithTimeout(cfg.Catalogue.RequestTimeout),
		catalogue.WithUserAgent(cfg.Catalogue.UserAgent),
		catalogue.WithListener(tracker),
		catalogue.WithLogger(log),
		catalogue.WithLimiter(ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.RequestsPerMinute)),
		catalogue.WithMaxRetries(cfg.Retry.MaxRetries),
		catalogue.WithRetryBackoff(retry.NewBackoff(cfg.Retry.Strategy, cfg.Retry.Backoff)),
		catalogue.WithRetryNetworkErrors(cfg.Retry.RetryNetworkErrors),
	)
	if err != nil {
		return nil, err
	}

	if useAuth {
		if err := login(ctx, client); err != nil {
			return nil, err
		}
	}

	orch := export.New(client, storage.NewManager(os.Stdout),
		export.WithListener(tracker),
		export.WithLogger(log),
		export.WithConcurrency(cfg.Export.Concurrency),
	)

	return &invocation{client: client, orch: orch, display: d}, nil
}

// login signs in with stored credentials when there are any, prompting for
// whatever is missing. The second factor is always prompted.
func login(ctx context.Context, client *catalogue.Client) error {
	reader := bufio.NewReader(os.Stdin)

	var username, password string
	if manager, err := auth.NewManager(); err == nil {
		if account, err := manager.ForHost(cfg.Catalogue.Host, accountName); err == nil {
			username, password = account.Username, account.Password
			log.WithField("username", username).Info("using stored credentials")
		}
	}

	var err error
	if username == "" {
		if username, err = prompt(reader, "username: "); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = promptHidden(reader, "password: "); err != nil {
			return err
		}
	}
	code, err := prompt(reader, "2FA token: ")
	if err != nil {
		return err
	}

	if err := client.Login(ctx, username, password, code); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	log.WithField("username", username).Info("logged in")
	return nil
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", fmt.Errorf("failed to read %s %w", strings.TrimSpace(label), err)
	}
	return strings.TrimSpace(input), nil
}

// promptHidden reads without echo when stdin is a terminal
func promptHidden(reader *bufio.Reader, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(reader, label)
	}

	fmt.Fprint(os.Stderr, label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %w", strings.TrimSpace(label), err)
	}
	return string(secret), nil
}

// finish reports how long name took and dumps metrics if requested
func finish(name string, start time.Time) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", name, time.Since(start).Round(time.Millisecond))

	if cfg.Metrics.File == "" {
		return
	}
	if err := prometheus.WriteToTextfile(cfg.Metrics.File, prometheus.DefaultGatherer); err != nil {
		log.WithError(err).WithField("file", cfg.Metrics.File).Warn("failed to write metrics")
	}
}
