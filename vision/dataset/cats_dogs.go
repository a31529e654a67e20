package dataset

import (
	"fmt"
	"strings"

	"github.com/tsawler/go-catsdogs/storage"
)

// CatsDogsClassNames are the default class labels in index order (cat = 0, dog = 1).
var CatsDogsClassNames = []string{"cat", "dog"}

// CatsDogsDataset is the enumerated cats vs dogs archive as an indexed dataset
type CatsDogsDataset struct {
	*ImageFolderDataset
	stats Stats
}

// NewCatsDogsDataset enumerates the archive extracted under root and keeps at
// most maxSamplesPerClass valid images per class (0 keeps everything).
// Class indices follow the enumerator's labels in sorted order, so WithLabels
// replaces CatsDogsClassNames. Enumeration errors, including the
// corrupt-count check, are returned as-is.
func NewCatsDogsDataset(fsys storage.FS, root string, maxSamplesPerClass int, opts ...Option) (*CatsDogsDataset, error) {
	enum := NewEnumerator(fsys, opts...)
	classNames := enum.Labels()

	dataset := newImageFolderDataset(classNames, 0)
	perClass := make(map[string]int, len(classNames))

	stats, err := enum.Enumerate(root, func(rec Record) error {
		if maxSamplesPerClass > 0 && perClass[rec.Label] >= maxSamplesPerClass {
			return nil
		}
		perClass[rec.Label]++
		return dataset.add(rec)
	})
	if err != nil {
		return nil, err
	}

	if dataset.Len() == 0 {
		return nil, fmt.Errorf("no images found in %s", root)
	}

	return &CatsDogsDataset{ImageFolderDataset: dataset, stats: stats}, nil
}

// Stats returns the enumeration statistics the dataset was built from
func (d *CatsDogsDataset) Stats() Stats {
	return d.stats
}

// Summary returns a summary of the dataset
func (d *CatsDogsDataset) Summary() string {
	dist := d.ClassDistribution()
	counts := make([]string, len(d.classNames))
	for i, name := range d.classNames {
		counts[i] = fmt.Sprintf("%d %ss", dist[name], name)
	}
	return fmt.Sprintf("Cats & Dogs Dataset: %d total images (%s), %d corrupt skipped",
		d.Len(), strings.Join(counts, ", "), d.stats.Skipped)
}
