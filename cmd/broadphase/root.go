package main

import (
	"github.com/hupe1980/broadphase"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cfg := DefaultConfig()
	var configPath string

	cmd := &cobra.Command{
		Use:   "broadphase",
		Short: "Sphere collision detection over an arena-backed BVH",
		Long: `broadphase builds a world of randomly placed spheres, indexes them in a
dynamic bounding volume hierarchy and reports every pair of colliding
spheres. Worlds can be saved to and restored from a snapshot store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := LoadConfig(configPath, &cfg, cmd.Flags()); err != nil {
				return err
			}
			return cfg.Validate()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	cfg.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newRunCmd(&cfg),
		newInspectCmd(&cfg),
		newListCmd(&cfg),
	)
	return cmd
}

func worldOptions(cfg *Config, cmd *cobra.Command) ([]broadphase.Option, error) {
	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	opts := []broadphase.Option{
		broadphase.WithReserveSize(int(cfg.Reserve)), //nolint:gosec // reservation sizes fit in int
		broadphase.WithMemoryLimit(int64(cfg.Memory)), //nolint:gosec // bounded by flag parsing
		broadphase.WithMaxWorkers(cfg.Workers),
		broadphase.WithLogger(logger),
	}
	if cfg.Commit > 0 {
		opts = append(opts, broadphase.WithCommitSize(int(cfg.Commit))) //nolint:gosec // commit sizes fit in int
	}
	return opts, nil
}
