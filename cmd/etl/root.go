package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iota-uz/sigos-etl/pkg/configuration"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "etl",
		Short:         "SIGOS report pipeline: extract, normalize and load portal exports into Postgres",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newCycleCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

func Execute() {
	defer configuration.Use().Unload()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
