package main

import (
	"context"
	"fmt"

	"github.com/hupe1980/broadphase"
	"github.com/spf13/cobra"
)

func newInspectCmd(cfg *Config) *cobra.Command {
	var withPass bool

	cmd := &cobra.Command{
		Use:   "inspect [snapshot]",
		Short: "Load a snapshot and show statistics of its tree",
		Long: `The inspect command restores a world from the snapshot store, validates
the tree and prints its shape. Without an argument the latest snapshot is
used.

Example:
  broadphase inspect
  broadphase inspect snapshot-0192f6c4-....bvh --collide`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return inspectWorld(cmd.Context(), cmd, cfg, name, withPass)
		},
	}
	cmd.Flags().BoolVar(&withPass, "collide", false, "Run a collision pass over the restored world")
	return cmd
}

func inspectWorld(ctx context.Context, cmd *cobra.Command, cfg *Config, name string, withPass bool) error {
	m, err := openManager(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer m.Close()

	opts, err := worldOptions(cfg, cmd)
	if err != nil {
		return err
	}

	w, err := broadphase.Load(ctx, m, name, opts...)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	defer w.Close()

	tree := w.Tree()
	stats := w.Stats()
	bounds := tree.Bounds()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "entities: %d of %d\n", w.Len(), w.Cap())
	fmt.Fprintf(out, "nodes: %d\n", tree.NodeCount())
	fmt.Fprintf(out, "depth: %d\n", tree.Depth())
	fmt.Fprintf(out, "cost: %.4f\n", tree.Cost())
	fmt.Fprintf(out, "bounds: (%f %f %f) (%f %f %f)\n",
		bounds.Min.X, bounds.Min.Y, bounds.Min.Z, bounds.Max.X, bounds.Max.Y, bounds.Max.Z)
	fmt.Fprintf(out, "committed: %s of %s\n",
		ByteSize(stats.CommittedBytes).Human(), ByteSize(stats.ReservedBytes).Human())

	if err := tree.Validate(); err != nil {
		return fmt.Errorf("validate tree: %w", err)
	}

	if !withPass {
		return nil
	}
	return collide(ctx, out, w, cfg)
}
