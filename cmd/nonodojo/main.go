package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nonodojo/internal/app"
	"nonodojo/internal/catalog"
	"nonodojo/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir, logPath, packsDir, difficulty string

	root := &cobra.Command{
		Use:           "nonodojo",
		Short:         "Terminal nonogram trainer with a daily featured puzzle",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "progress database directory")
	root.PersistentFlags().StringVar(&logPath, "log", "", "JSONL log file path")
	root.PersistentFlags().StringVar(&packsDir, "packs", "", "extra puzzle pack directory")
	root.PersistentFlags().StringVar(&difficulty, "difficulty", "", "difficulty tier (easy, medium, hard)")

	loadApp := func(ctx context.Context) (*app.App, error) {
		cfg, err := app.ConfigFromEnv()
		if err != nil {
			return nil, err
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if logPath != "" {
			cfg.LogPath = logPath
		}
		if packsDir != "" {
			cfg.PacksDir = packsDir
		}
		if difficulty != "" {
			cfg.Difficulty = difficulty
		}
		return app.New(ctx, cfg)
	}

	root.AddCommand(newPlayCmd(loadApp))
	root.AddCommand(newFeaturedCmd(loadApp))
	root.AddCommand(newNextCmd(loadApp))
	root.AddCommand(newStatsCmd(loadApp))
	root.AddCommand(newCatalogCmd(loadApp))
	root.AddCommand(newCleanupCmd(loadApp))
	return root
}

type appLoader func(ctx context.Context) (*app.App, error)

func newPlayCmd(load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play today's puzzle in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.Machine().Load(ctx); err != nil {
				return err
			}
			return ui.Run(a.Machine(), a.ASCIIOnly())
		},
	}
}

func newFeaturedCmd(load appLoader) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "featured",
		Short: "Show the featured puzzle for a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if date == "" {
				date = time.Now().Format("2006-01-02")
			} else if _, err := time.Parse("2006-01-02", date); err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
			}
			pz, err := a.Engine().Featured(a.Machine().Difficulty(), date)
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%s (%dx%d) on %s\n", pz.ID, pz.Name, pz.Size, pz.Size, date)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date to inspect (YYYY-MM-DD, default today)")
	return cmd
}

func newNextCmd(load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Advance the rotation and show the pick",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			d := a.Machine().Difficulty()
			pz, err := a.Rotation().Pick(ctx, d)
			if err != nil {
				return err
			}
			remaining, err := a.Rotation().Remaining(ctx, d)
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%s (%dx%d), %d left this cycle\n", pz.ID, pz.Name, pz.Size, pz.Size, remaining)
			return nil
		},
	}
}

func newStatsCmd(load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show attempt and solve statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			sum, err := a.Store().GetSummary(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("attempts:        %d\n", sum.Attempts)
			fmt.Printf("solved attempts: %d\n", sum.SolvedDays)
			fmt.Printf("puzzles solved:  %d\n", sum.PuzzlesSolved)
			return nil
		},
	}
}

func newCatalogCmd(load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List puzzle pool sizes per difficulty",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			sizes := a.Catalog().PoolSizes()
			for _, d := range catalog.Tiers {
				fmt.Printf("%-8s %d puzzles\n", d, sizes[d])
			}
			return nil
		},
	}
}

func newCleanupCmd(load appLoader) *cobra.Command {
	var maxAgeDays int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove attempt history older than a threshold",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			today := time.Now().Format("2006-01-02")
			removed, err := a.Store().Cleanup(ctx, maxAgeDays, today)
			if err != nil {
				return err
			}
			fmt.Printf("removed %d day(s) of history\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxAgeDays, "max-age-days", 30, "delete attempts older than this many days")
	return cmd
}
