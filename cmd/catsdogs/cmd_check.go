package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsawler/go-catsdogs/vision/dataset"
)

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, fsys, err := openSource(cmd)
	if err != nil {
		return err
	}

	ds, err := dataset.NewCatsDogsDataset(fsys, cfg.Source.Root, 0,
		dataset.WithExpectedCorrupt(cfg.Enumerate.ExpectedCorrupt),
		dataset.WithLogger(logger))
	if err != nil {
		logger.Error("Check failed", zap.String("root", cfg.Source.Root), zap.Error(err))
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ds.Summary())
	fmt.Fprintf(out, "Corrupt images: %d (expected %d)\n", ds.Stats().Skipped, cfg.Enumerate.ExpectedCorrupt)
	return nil
}
