package preprocessing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/go-catsdogs/storage"
	"github.com/tsawler/go-catsdogs/vision/dataset"
)

// ImageHeader describes a decoded image header
type ImageHeader struct {
	Width  int
	Height int
	Format string
	JFIF   bool // JFIF marker within the leading header bytes
}

// Inspector reads image headers without decoding pixel data
type Inspector struct {
	// MaxPixels rejects images larger than this many pixels. Zero disables the limit.
	MaxPixels int
}

// NewInspector creates an inspector with no size limit
func NewInspector() *Inspector {
	return &Inspector{}
}

// Inspect decodes the JPEG header from reader
func (p *Inspector) Inspect(reader io.Reader) (*ImageHeader, error) {
	head := make([]byte, dataset.HeaderSize)
	n, err := io.ReadFull(reader, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	head = head[:n]

	jfif, err := dataset.HasJFIFMarker(bytes.NewReader(head))
	if err != nil {
		return nil, err
	}

	cfg, format, err := image.DecodeConfig(io.MultiReader(bytes.NewReader(head), reader))
	if err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}
	if format != "jpeg" {
		return nil, fmt.Errorf("unexpected image format %q", format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if p.MaxPixels > 0 && cfg.Width*cfg.Height > p.MaxPixels {
		return nil, fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, p.MaxPixels)
	}

	return &ImageHeader{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		JFIF:   jfif,
	}, nil
}

// AuditReport summarizes a header audit over enumerated records
type AuditReport struct {
	Checked   int
	Decodable int
	Failures  map[string]error
}

// FailedPaths returns the paths that failed to decode, sorted
func (r *AuditReport) FailedPaths() []string {
	paths := make([]string, 0, len(r.Failures))
	for p := range r.Failures {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// AuditOptions configures AuditRecords.
type AuditOptions struct {
	// Workers bounds the concurrent readers. Values below 1 mean one.
	Workers int
	// Cache serves headers already inspected and stores new ones. May be nil.
	Cache *HeaderCache
	// OnChecked is called once per inspected record, possibly from several
	// goroutines at once. May be nil.
	OnChecked func()
}

// AuditRecords inspects every record. Decode failures are collected in the
// report; a failure to open a record, or cancellation of ctx, aborts the
// audit.
func AuditRecords(ctx context.Context, fsys storage.FS, records []dataset.Record, opts AuditOptions) (*AuditReport, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	checked := func() {
		if opts.OnChecked != nil {
			opts.OnChecked()
		}
	}

	headers := make([]*ImageHeader, len(records))
	decodeErrs := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range records {
		path := records[i].Image
		if opts.Cache != nil {
			if hdr, ok := opts.Cache.Get(path); ok {
				headers[i] = hdr
				checked()
				continue
			}
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			file, err := fsys.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open image %s: %w", path, err)
			}
			defer file.Close()
			defer checked()

			hdr, err := NewInspector().Inspect(file)
			if err != nil {
				decodeErrs[i] = err
				return nil
			}
			headers[i] = hdr
			if opts.Cache != nil {
				opts.Cache.Put(path, hdr)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &AuditReport{
		Checked:  len(records),
		Failures: make(map[string]error),
	}
	for i, hdr := range headers {
		if hdr != nil {
			report.Decodable++
			continue
		}
		report.Failures[records[i].Image] = decodeErrs[i]
	}
	return report, nil
}
