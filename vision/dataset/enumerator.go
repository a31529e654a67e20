package dataset

import (
	"fmt"
	"iter"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tsawler/go-catsdogs/storage"
)

// DefaultExpectedCorrupt is the number of files in the published
// kagglecatsanddogs archive that lack the JFIF marker.
const DefaultExpectedCorrupt = 1800

// DefaultLabels are the label directory names, lowercased.
var DefaultLabels = []string{"cat", "dog"}

// Record is one labeled example.
type Record struct {
	Image string `json:"image"`
	Label string `json:"label"`
}

// Stats summarizes one enumeration.
type Stats struct {
	Emitted  int
	Skipped  int
	PerLabel map[string]int
}

// Enumerator turns an extracted archive into a stream of records.
// It keeps no state between calls; every Enumerate rescans storage.
type Enumerator struct {
	fs              storage.FS
	expectedCorrupt int
	labels          map[string]bool
	logger          *zap.Logger
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithExpectedCorrupt overrides the number of corrupt files the scan must find.
func WithExpectedCorrupt(n int) Option {
	return func(e *Enumerator) {
		e.expectedCorrupt = n
	}
}

// WithLabels overrides the accepted label directory names (case-insensitive).
func WithLabels(labels ...string) Option {
	return func(e *Enumerator) {
		e.labels = labelSet(labels)
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Enumerator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEnumerator creates an enumerator reading from fsys.
func NewEnumerator(fsys storage.FS, opts ...Option) *Enumerator {
	e := &Enumerator{
		fs:              fsys,
		expectedCorrupt: DefaultExpectedCorrupt,
		labels:          labelSet(DefaultLabels),
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Labels returns the accepted labels, lowercased and sorted.
func (e *Enumerator) Labels() []string {
	labels := make([]string, 0, len(e.labels))
	for l := range e.labels {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// ExpectedCorrupt returns the configured expected corrupt count.
func (e *Enumerator) ExpectedCorrupt() int {
	return e.expectedCorrupt
}

// Enumerate scans root and calls emit once per valid image. Scanning stops at
// the first error from storage or from emit. When the whole tree has been
// scanned and the skip count differs from the expected count, the returned
// error is an *IntegrityError; records emitted before that are not retracted.
func (e *Enumerator) Enumerate(root string, emit func(Record) error) (Stats, error) {
	stats := Stats{PerLabel: make(map[string]int)}

	archiveDir, err := e.archiveDir(root)
	if err != nil {
		return stats, err
	}
	labelDirs, err := e.labelDirs(archiveDir)
	if err != nil {
		return stats, err
	}

	for _, dir := range labelDirs {
		label := strings.ToLower(dir)
		labelPath := e.fs.Join(archiveDir, dir)
		e.logger.Debug("scanning label directory",
			zap.String("label", label),
			zap.String("path", labelPath))

		walkErr := e.fs.Walk(labelPath, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() || !strings.HasSuffix(info.Name(), ImageExtension) {
				return nil
			}

			ok, err := e.isJFIF(path)
			if err != nil {
				return err
			}
			if !ok {
				stats.Skipped++
				e.logger.Debug("skipping corrupt image", zap.String("path", path))
				return nil
			}

			if err := emit(Record{Image: path, Label: label}); err != nil {
				return &emitError{err: err}
			}
			stats.Emitted++
			stats.PerLabel[label]++
			return nil
		})
		if walkErr != nil {
			var ee *emitError
			if errors.As(walkErr, &ee) {
				return stats, ee.err
			}
			return stats, errors.Wrapf(walkErr, "walk %q", labelPath)
		}
	}

	if stats.Skipped != e.expectedCorrupt {
		return stats, &IntegrityError{Expected: e.expectedCorrupt, Actual: stats.Skipped}
	}
	e.logger.Warn("images were corrupted and were skipped", zap.Int("count", stats.Skipped))
	return stats, nil
}

// Records returns the enumeration as a pull sequence. A non-nil error is
// yielded at most once, as the final element.
func (e *Enumerator) Records(root string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		_, err := e.Enumerate(root, func(r Record) error {
			if !yield(r, nil) {
				return errStopped
			}
			return nil
		})
		if err != nil && err != errStopped {
			yield(Record{}, err)
		}
	}
}

// Collect runs Enumerate and returns all records.
func (e *Enumerator) Collect(root string) ([]Record, Stats, error) {
	var records []Record
	stats, err := e.Enumerate(root, func(r Record) error {
		records = append(records, r)
		return nil
	})
	return records, stats, err
}

// archiveDir returns the first directory directly under root.
func (e *Enumerator) archiveDir(root string) (string, error) {
	entries, err := e.fs.ReadDir(root)
	if err != nil {
		return "", &PreconditionError{Path: root, Reason: "cannot list root directory", Err: err}
	}
	for _, entry := range entries {
		if entry.IsDir() {
			return e.fs.Join(root, entry.Name()), nil
		}
	}
	return "", &PreconditionError{Path: root, Reason: "no extracted archive directory found"}
}

// labelDirs returns the label directory names under dir in listing order.
func (e *Enumerator) labelDirs(dir string) ([]string, error) {
	entries, err := e.fs.ReadDir(dir)
	if err != nil {
		return nil, &PreconditionError{Path: dir, Reason: "cannot list archive directory", Err: err}
	}
	if len(entries) != len(e.labels) {
		return nil, &PreconditionError{
			Path:   dir,
			Reason: fmt.Sprintf("expected %d label directories, found %d entries", len(e.labels), len(entries)),
		}
	}

	seen := make(map[string]bool, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		label := strings.ToLower(entry.Name())
		switch {
		case !entry.IsDir():
			return nil, &PreconditionError{Path: e.fs.Join(dir, entry.Name()), Reason: "label entry is not a directory"}
		case !e.labels[label]:
			return nil, &PreconditionError{Path: e.fs.Join(dir, entry.Name()), Reason: "unknown label directory"}
		case seen[label]:
			return nil, &PreconditionError{Path: e.fs.Join(dir, entry.Name()), Reason: "duplicate label directory"}
		}
		seen[label] = true
		names = append(names, entry.Name())
	}
	return names, nil
}

func (e *Enumerator) isJFIF(path string) (bool, error) {
	f, err := e.fs.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	ok, err := HasJFIFMarker(f)
	if err != nil {
		return false, errors.Wrapf(err, "%s", path)
	}
	return ok, nil
}

func labelSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[strings.ToLower(l)] = true
	}
	return set
}

// emitError carries an error returned by the caller's emit function through
// Walk so it can be returned unwrapped.
type emitError struct{ err error }

func (e *emitError) Error() string { return e.err.Error() }

var errStopped = errors.New("enumeration stopped by consumer")
