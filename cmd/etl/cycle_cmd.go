package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
	"github.com/iota-uz/sigos-etl/pkg/configuration"
)

// cycleReports is the order a full collection cycle processes reports in.
var cycleReports = []report.Type{report.General, report.Return}

var errFullCycleFailed = errors.New("cycle: every report failed")

func newCycleCmd() *cobra.Command {
	var (
		modeFlag      string
		keepFiles     bool
		waitDownloads bool
	)

	cmd := &cobra.Command{
		Use:   "cycle --mode <full|incremental>",
		Short: "Run the pipeline for every report, isolating per-report failures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := report.ParseMode(modeFlag)
			if err != nil {
				return err
			}

			conf := configuration.Use()
			logger := conf.Logger()
			repo := buildRepository(conf)
			defer repo.Close()
			etl := buildETL(conf, repo, waitDownloads)

			failed := 0
			for _, t := range cycleReports {
				if _, err := etl.Run(cmd.Context(), t, mode, keepFiles); err != nil {
					logger.WithError(err).WithField("report", t).
						Error("cycle: report failed, continuing with the next one")
					failed++
				}
			}
			if failed == len(cycleReports) {
				return errFullCycleFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", string(report.Incremental), "load mode: full or incremental")
	cmd.Flags().BoolVar(&keepFiles, "keep-files", false, "keep input files after a successful load")
	cmd.Flags().BoolVar(&waitDownloads, "wait-downloads", false, "announce portal date windows and wait for fresh exports")
	return cmd
}
