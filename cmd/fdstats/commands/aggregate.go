package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"fdstats/internal/config"
	"fdstats/internal/export"
	"fdstats/internal/stats"
)

var (
	aggregateInput  string
	aggregateOutput string
	aggregateFormat string
	aggregateWindow int
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Run the full pipeline over an export file and write the stats document",
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := uuid.NewString()
		logger := log.With().Str("run", runID).Logger()

		rules, err := config.LoadRules(cfg.RulesPath)
		if err != nil {
			return err
		}

		output := aggregateOutput
		if output == "" {
			output = cfg.OutputPath
		}
		windowDays := aggregateWindow
		if windowDays <= 0 {
			windowDays = cfg.WindowDays
		}

		records, err := parseInput(aggregateInput, aggregateFormat, cfg.Location)
		if err != nil {
			return err
		}
		logger.Info().Int("records", len(records)).Str("input", aggregateInput).Msg("Export parsed")

		groups := stats.GroupByIncident(records)
		timelines := stats.Reconcile(groups, rules)
		doc := stats.Aggregate(timelines, stats.Options{
			WindowDays: windowDays,
			Now:        time.Now().In(cfg.Location),
		})

		if err := doc.Save(output); err != nil {
			return err
		}

		logger.Info().
			Int("incidents", doc.IncidentStats.NumTotal).
			Int("inWindow", doc.IncidentStats.NumInWindow).
			Str("from", doc.DateRangeFrom).
			Str("to", doc.DateRangeTo).
			Msg("Aggregation complete")
		return nil
	},
}

// parseInput selects the adapter by explicit flag or file extension.
func parseInput(path, format string, loc *time.Location) ([]export.UnitRecord, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			format = "neris"
		default:
			format = "csv"
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	switch format {
	case "csv":
		return export.ParseCSV(f, loc)
	case "neris":
		return export.ParseNERIS(f, loc)
	default:
		return nil, fmt.Errorf("unknown input format %q (want csv or neris)", format)
	}
}

func init() {
	aggregateCmd.Flags().StringVarP(&aggregateInput, "input", "i", "", "path to the raw export file (required)")
	aggregateCmd.Flags().StringVarP(&aggregateOutput, "output", "o", "", "stats document path (defaults to STATS_OUTPUT_FILE)")
	aggregateCmd.Flags().StringVar(&aggregateFormat, "format", "", "input format: csv or neris (default: by file extension)")
	aggregateCmd.Flags().IntVar(&aggregateWindow, "window", 0, "trailing window in days (defaults to STATS_WINDOW_DAYS)")
	_ = aggregateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(aggregateCmd)
}
