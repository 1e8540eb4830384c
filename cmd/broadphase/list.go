package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots in the store, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			m, err := openManager(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer m.Close()

			names, err := m.List(ctx)
			if err != nil {
				return fmt.Errorf("list snapshots: %w", err)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
