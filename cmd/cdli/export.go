package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	errs "cdli/pkg/errors"
	"cdli/pkg/export"
	"cdli/pkg/storage"
	"cdli/pkg/ui"
)

// Entities are the collections the catalogue exports
var Entities = []string{
	"archives",
	"artifacts",
	"artifactsExternalResources",
	"artifactsMaterials",
	"collections",
	"dates",
	"dynasties",
	"genres",
	"inscriptions",
	"languages",
	"materials",
	"materialAspects",
	"materialColors",
	"periods",
	"proveniences",
	"publications",
	"regions",
	"rulers",
}

var entities []string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entire collections",
	Long: `Export one or more entity collections. Every entity is downloaded
concurrently and written to the output file at the same position, or to
stdout when no output file is given.

Entities: ` + strings.Join(Entities, ", "),
	Example: `  # Periods as CSV on stdout
  cdli export -e periods -f csv

  # Two entities into two files
  cdli export -e periods -e rulers -f ttl -o periods.ttl -o rulers.ttl

  # One file per entity
  cdli export -e genres -e languages -f ndjson -o 'data/{label}.ndjson'`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringArrayVarP(&entities, "entities", "e", nil, "entity to export (repeatable)")
	_ = exportCmd.MarkFlagRequired("entities")
}

func validateEntities(names []string) error {
	for _, name := range names {
		found := false
		for _, e := range Entities {
			if e == name {
				found = true
				break
			}
		}
		if !found {
			return errs.Input(fmt.Sprintf("unknown entity %q (choose from %s)", name, strings.Join(Entities, ", ")))
		}
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := validateEntities(entities); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	s, err := newInvocation(ctx, "Export", cancel)
	if err != nil {
		return err
	}

	start := time.Now()
	defer finish("Export", start)

	outcomes, err := exportAll(ctx, s)
	if err != nil {
		return err
	}

	return reportOutcomes(outcomes)
}

func exportAll(ctx context.Context, s *invocation) ([]export.Outcome, error) {
	targets := storage.ExpandTargets(entities, outputFiles)

	s.display.start()
	defer s.display.stop()

	return s.orch.Export(ctx, cfg.Export.Format, entities, targets)
}

func reportOutcomes(outcomes []export.Outcome) error {
	rejected := export.Rejected(outcomes)
	for _, o := range outcomes {
		fields := map[string]interface{}{
			"entity": o.Label,
			"target": o.Target,
			"pages":  o.Pages,
			"bytes":  o.Bytes,
		}
		if o.Err != nil {
			log.WithError(o.Err).ErrorWithFields("export failed", fields)
		} else {
			log.InfoWithFields("export finished", fields)
		}
	}

	if len(rejected) == 0 {
		return nil
	}
	for _, o := range rejected {
		ui.PrintError(fmt.Sprintf("Export of %s failed", o.Label), o.Err)
	}
	return errReported
}
