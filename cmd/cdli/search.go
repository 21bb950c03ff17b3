package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	errs "cdli/pkg/errors"
	"cdli/pkg/export"
	"cdli/pkg/query"
	"cdli/pkg/storage"
	"cdli/pkg/ui"
)

var searchOpts query.Options

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search artifacts in the catalogue",
	Long: `Search artifacts and write every result page to stdout or a file.

Simple search terms are paired by position with their category and
operator; missing categories default to keyword and missing operators to
AND. Advanced fields and filter fields are paired with their values by
position.

Categories: ` + strings.Join(query.Categories, ", ") + `
Operators: ` + strings.Join(query.Operators, ", "),
	Example: `  # Keyword search
  cdli search -q Uruk -f csv

  # Two terms, the first restricted to periods
  cdli search -q "Ur III" --query-category period -q Nippur --query-operator OR

  # Filtered advanced search into a file
  cdli search --advanced-field designation --advanced-query "CUSAS 1" \
    --filter-field genre --filter-value Lexical -o results.ndjson -f ndjson`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	flags := searchCmd.Flags()
	flags.StringArrayVarP(&searchOpts.Queries, "query", "q", nil, "search query (repeatable)")
	flags.StringArrayVar(&searchOpts.Categories, "query-category", nil, "search category per query")
	flags.StringArrayVar(&searchOpts.Operators, "query-operator", nil, "search operator per query")
	flags.StringArrayVar(&searchOpts.AdvancedFields, "advanced-field", nil, "advanced search field (repeatable)")
	flags.StringArrayVar(&searchOpts.AdvancedValues, "advanced-query", nil, "advanced search query per field")
	flags.StringArrayVar(&searchOpts.FilterFields, "filter-field", nil, "filter by field (repeatable)")
	flags.StringArrayVar(&searchOpts.FilterValues, "filter-value", nil, "filter value per field")
}

func validateSearch(opts query.Options) error {
	for _, c := range opts.Categories {
		if !query.Valid(c, query.Categories) {
			return errs.Input(fmt.Sprintf("invalid query category %q (choose from %s)", c, strings.Join(query.Categories, ", ")))
		}
	}
	for _, o := range opts.Operators {
		if !query.Valid(o, query.Operators) {
			return errs.Input(fmt.Sprintf("invalid query operator %q (choose from %s)", o, strings.Join(query.Operators, ", ")))
		}
	}
	return nil
}

func searchTarget(outputs []string) (string, error) {
	switch len(outputs) {
	case 0:
		return storage.Stdout, nil
	case 1:
		return strings.ReplaceAll(outputs[0], storage.LabelPlaceholder, export.SearchLabel), nil
	default:
		return "", errs.Input(fmt.Sprintf("search writes one output but %d output files were given", len(outputs)))
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validateSearch(searchOpts); err != nil {
		return err
	}
	target, err := searchTarget(outputFiles)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	s, err := newInvocation(ctx, "Search", cancel)
	if err != nil {
		return err
	}

	start := time.Now()
	defer finish("Search", start)

	q := query.Build(searchOpts)
	log.WithField("query", q).Info("search started")

	s.display.start()
	err = s.orch.Search(ctx, cfg.Export.Format, q, target)
	s.display.stop()

	if err != nil {
		ui.PrintError("Search failed", err)
		return errReported
	}
	return nil
}
