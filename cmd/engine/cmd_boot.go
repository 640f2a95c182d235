package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newBootCmd creates the "engine boot" subcommand.
func newBootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boot",
		Short: "Queue an alarm restore after a host restart",
		Long:  "Queues a RestoreAlarms job in the engine database. A running engine\npicks it up on its next sweep; otherwise it runs when the engine starts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.boot.OnBoot(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "alarm restore queued")
			return nil
		},
	}
}
