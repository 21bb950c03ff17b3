package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cdli/pkg/catalogue"
	"cdli/pkg/config"
	"cdli/pkg/logger"
	"cdli/pkg/ui"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile   string
	host         string
	format       string
	outputFiles  []string
	useAuth      bool
	accountName  string
	logLevel     string
	verbose      bool
	quiet        bool
	noColor      bool
	progressMode string
	metricsFile  string

	cfg *config.Config
	log logger.Logger
)

// errReported is returned once the failure was already shown to the user
var errReported = errors.New("failure reported")

var rootCmd = &cobra.Command{
	Use:   "cdli",
	Short: "Export and search the Cuneiform Digital Library Initiative catalogue",
	Long: `cdli downloads entity collections and search results from the CDLI
catalogue in any of its export formats, following pagination until the last
page. Data goes to stdout or to files; progress and logs go to stderr.

Formats: ` + strings.Join(catalogue.Formats(), ", "),
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		cfg = loaded

		ui.NoColor = ui.NoColor || cfg.Logging.NoColor

		l, err := logger.New(&cfg.Logging)
		if err != nil {
			return err
		}
		log = l.WithFields(map[string]interface{}{
			"run_id":  uuid.NewString(),
			"command": cmd.Name(),
		})
		logger.SetLogger(log)
		return nil
	},
}

// applyFlags overrides configuration with the flags given on the command line
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("host") {
		c.Catalogue.Host = host
	}
	if flags.Changed("format") {
		c.Export.Format = format
	}
	if flags.Changed("progress") {
		c.Progress.Mode = progressMode
	}
	if flags.Changed("metrics-file") {
		c.Metrics.File = metricsFile
	}
	if flags.Changed("no-color") {
		c.Logging.NoColor = noColor
	}

	switch {
	case flags.Changed("log-level"):
		c.Logging.Level = logLevel
	case verbose:
		c.Logging.Level = "info"
	}

	if quiet {
		c.Progress.Mode = config.ProgressNone
		if !flags.Changed("log-level") {
			c.Logging.Level = "error"
		}
	}
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			ui.PrintError("Error", err)
		}
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default is .cdli.yaml or ~/.config/cdli/config.yaml)")
	flags.StringVarP(&host, "host", "H", config.DefaultHost, "catalogue host")
	flags.StringVarP(&format, "format", "f", "ntriples", "export format ("+strings.Join(catalogue.Formats(), ", ")+")")
	flags.StringArrayVarP(&outputFiles, "output-file", "o", nil, "output file per entity, in order; {label} expands to the entity name (default stdout)")
	flags.BoolVar(&useAuth, "auth", false, "log in before requesting data")
	flags.StringVar(&accountName, "account", "", "stored account to log in with (see 'cdli auth')")
	flags.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error, disabled)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log at info level")
	flags.BoolVar(&quiet, "quiet", false, "no progress display, errors only")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.StringVar(&progressMode, "progress", config.ProgressLines, "progress display (lines, tui, none)")
	flags.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file when done")

	rootCmd.SetVersionTemplate(`cdli {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
