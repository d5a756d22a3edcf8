package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
	"github.com/iota-uz/sigos-etl/pkg/configuration"
)

func newRunCmd() *cobra.Command {
	var (
		reportFlag    string
		modeFlag      string
		keepFiles     bool
		waitDownloads bool
	)

	cmd := &cobra.Command{
		Use:   "run --report <general|return> --mode <full|incremental>",
		Short: "Run the pipeline once for a single report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := report.ParseType(reportFlag)
			if err != nil {
				return err
			}
			mode, err := report.ParseMode(modeFlag)
			if err != nil {
				return err
			}

			conf := configuration.Use()
			repo := buildRepository(conf)
			defer repo.Close()

			_, err = buildETL(conf, repo, waitDownloads).Run(cmd.Context(), t, mode, keepFiles)
			return err
		},
	}
	cmd.Flags().StringVar(&reportFlag, "report", "", "report to process: general or return")
	cmd.Flags().StringVar(&modeFlag, "mode", string(report.Incremental), "load mode: full or incremental")
	cmd.Flags().BoolVar(&keepFiles, "keep-files", false, "keep input files after a successful load")
	cmd.Flags().BoolVar(&waitDownloads, "wait-downloads", false, "announce portal date windows and wait for fresh exports")
	return cmd
}
