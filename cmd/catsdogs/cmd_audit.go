package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsawler/go-catsdogs/config"
	"github.com/tsawler/go-catsdogs/records"
	"github.com/tsawler/go-catsdogs/storage"
	"github.com/tsawler/go-catsdogs/vision/dataset"
	"github.com/tsawler/go-catsdogs/vision/preprocessing"
)

var (
	auditWorkers int
	auditShow    int
	auditRecords string
)

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, fsys, err := openSource(cmd)
	if err != nil {
		return err
	}

	recs, err := auditInput(cmd, cfg, fsys)
	if err != nil {
		return err
	}

	workers := auditWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	bar := newSpinner(cmd.ErrOrStderr(), "Decoding headers")
	report, err := preprocessing.AuditRecords(commandContext(cmd), fsys, recs, preprocessing.AuditOptions{
		Workers:   workers,
		OnChecked: func() { _ = bar.Add(1) },
	})
	finishSpinner(bar)
	if err != nil {
		return err
	}
	logger.Debug("Header audit finished", zap.Int("checked", report.Checked), zap.Int("workers", workers))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Decodable headers: %d of %d\n", report.Decodable, report.Checked)

	failed := report.FailedPaths()
	for i, path := range failed {
		if i == auditShow {
			fmt.Fprintf(out, "  ... and %d more\n", len(failed)-auditShow)
			break
		}
		fmt.Fprintf(out, "  %s: %v\n", path, report.Failures[path])
	}

	if len(failed) > 0 {
		logger.Warn("images with a JFIF marker failed header decoding", zap.Int("count", len(failed)))
	}
	return nil
}

// auditInput returns the records to audit: those in the --records file when
// given, otherwise a fresh enumeration of the source.
func auditInput(cmd *cobra.Command, cfg *config.Config, fsys storage.FS) ([]dataset.Record, error) {
	out := cmd.OutOrStdout()

	if auditRecords != "" {
		format, err := cfg.RecordFormat()
		if err != nil {
			return nil, err
		}
		r, err := records.Open(auditRecords, format)
		if err != nil {
			return nil, err
		}
		defer r.Close()

		recs, err := r.ReadAll()
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "Read %d records from %s\n", len(recs), auditRecords)
		return recs, nil
	}

	recs, stats, err := newEnumerator(cfg, fsys).Collect(cfg.Source.Root)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Enumerated %d images (%d corrupt skipped)\n", stats.Emitted, stats.Skipped)
	return recs, nil
}
