package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"fdstats/internal/config"
	"fdstats/internal/logging"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "fdstats",
	Short: "fdstats aggregates fire-district incident exports into response statistics",
	Long: `fdstats ingests the district's raw per-unit incident export (CSV or NERIS JSON),
reconstructs per-incident timelines despite data-entry artifacts, and produces
the aggregate response-time and workload statistics the public site renders.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("fdstats starting")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
