package main

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsawler/go-catsdogs/records"
	"github.com/tsawler/go-catsdogs/vision/dataset"
)

// newSpinner returns an open-ended progress indicator counting images.
func newSpinner(w io.Writer, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
	)
}

// finishSpinner erases the spinner line and stops further rendering.
func finishSpinner(bar *progressbar.ProgressBar) {
	_ = bar.Clear()
	_ = bar.Exit()
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, fsys, err := openSource(cmd)
	if err != nil {
		return err
	}

	format, err := cfg.RecordFormat()
	if err != nil {
		return err
	}

	w, err := records.Create(cfg.Output.Path, format)
	if err != nil {
		return err
	}

	bar := newSpinner(cmd.ErrOrStderr(), "Enumerating")
	stats, err := newEnumerator(cfg, fsys).Enumerate(cfg.Source.Root, func(rec dataset.Record) error {
		if err := w.Write(rec); err != nil {
			return err
		}
		return bar.Add(1)
	})
	finishSpinner(bar)

	closeErr := w.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		// A partial records file would look like a complete one.
		if rmErr := os.Remove(cfg.Output.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("Failed to remove partial output", zap.String("path", cfg.Output.Path), zap.Error(rmErr))
		}
		logger.Error("Generation failed", zap.Error(err))
		return err
	}

	logger.Info("Wrote records",
		zap.String("path", cfg.Output.Path),
		zap.String("format", format.String()),
		zap.Int("count", w.Count()))

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s (%d cats, %d dogs, %d corrupt skipped)\n",
		w.Count(), cfg.Output.Path, stats.PerLabel["cat"], stats.PerLabel["dog"], stats.Skipped)
	return nil
}
