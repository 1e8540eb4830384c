package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/hupe1980/broadphase"
	"github.com/hupe1980/broadphase/testutil"
	"github.com/spf13/cobra"
)

func newRunCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate a random world and find its collisions",
		Long: `The run command places --entities spheres at random positions inside the
unit cube centered on the origin, inserts them into the BVH and runs a
collision pass over the whole world.

Example:
  broadphase run -n 10000 --seed 42
  broadphase run -n 1000 --print
  broadphase run -n 100000 -w 8 --save --store local --store.path ./snapshots`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorld(cmd.Context(), cmd, cfg)
		},
	}
}

func runWorld(ctx context.Context, cmd *cobra.Command, cfg *Config) error {
	opts, err := worldOptions(cfg, cmd)
	if err != nil {
		return err
	}

	w, err := broadphase.New(cfg.Entities, opts...)
	if err != nil {
		return fmt.Errorf("create world: %w", err)
	}
	defer w.Close()

	rng := testutil.NewRNG(cfg.Seed)
	for _, s := range rng.Spheres(cfg.Entities, cfg.MaxRadius) {
		if _, err := w.Add(s.Center, s.Radius); err != nil {
			return fmt.Errorf("add entity: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if err := collide(ctx, out, w, cfg); err != nil {
		return err
	}

	if !cfg.Save {
		return nil
	}
	return saveWorld(ctx, out, w, cfg.Store)
}

// collide runs one collision pass over w and writes its summary to out.
func collide(ctx context.Context, out io.Writer, w *broadphase.World, cfg *Config) error {
	start := time.Now()

	var (
		report *broadphase.Report
		err    error
	)
	switch cfg.Workers {
	case 1:
		report, err = w.FindCollisions(ctx)
	case 0:
		report, err = w.FindCollisionsParallel(ctx, runtime.GOMAXPROCS(0))
	default:
		report, err = w.FindCollisionsParallel(ctx, cfg.Workers)
	}
	if err != nil {
		return fmt.Errorf("find collisions: %w", err)
	}
	elapsed := time.Since(start)

	if cfg.Print {
		if _, err := report.WriteTo(out); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	_, err = fmt.Fprintf(out, "entities: %d\npairs: %d\ncolliding: %d\nelapsed: %s\n",
		len(report.Entities), report.Pairs, report.Colliding.GetCardinality(), elapsed.Round(time.Microsecond))
	return err
}

func saveWorld(ctx context.Context, out io.Writer, w *broadphase.World, cfg StoreConfig) error {
	m, err := openManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	name, err := w.Save(ctx, m)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	fmt.Fprintf(out, "snapshot: %s\n", name)

	if cfg.Keep > 0 {
		removed, err := m.Retain(ctx, cfg.Keep)
		if err != nil {
			return fmt.Errorf("retain snapshots: %w", err)
		}
		for _, r := range removed {
			fmt.Fprintf(out, "removed: %s\n", r)
		}
	}
	return nil
}
