package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runningwild/iobench/pkg/fio"
)

func (a *app) fioJobCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fio-job [flags] <path>",
		Short: "Print the fio job file equivalent to a configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.flags.load(cmd, args)
			if err != nil {
				return err
			}
			if err := a.maybeWriteConfig(cfg); err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), fio.GenerateJob(cfg))
			return err
		},
	}
}
