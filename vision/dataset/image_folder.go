package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// ImageFolderDataset is an indexed, in-memory view over labeled image records
type ImageFolderDataset struct {
	imagePaths []string
	labels     []int
	classNames []string
	classToIdx map[string]int
}

// FromRecords builds a dataset from records. Class indices follow the order
// of classNames; records with a label outside classNames are rejected.
func FromRecords(records []Record, classNames []string) (*ImageFolderDataset, error) {
	d := newImageFolderDataset(classNames, len(records))
	for _, rec := range records {
		if err := d.add(rec); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func newImageFolderDataset(classNames []string, capacity int) *ImageFolderDataset {
	d := &ImageFolderDataset{
		imagePaths: make([]string, 0, capacity),
		labels:     make([]int, 0, capacity),
		classNames: classNames,
		classToIdx: make(map[string]int, len(classNames)),
	}
	for i, name := range classNames {
		d.classToIdx[name] = i
	}
	return d
}

func (d *ImageFolderDataset) add(rec Record) error {
	idx, ok := d.classToIdx[rec.Label]
	if !ok {
		return fmt.Errorf("record %q has unknown label %q", rec.Image, rec.Label)
	}
	d.imagePaths = append(d.imagePaths, rec.Image)
	d.labels = append(d.labels, idx)
	return nil
}

// Len returns the number of items in the dataset
func (d *ImageFolderDataset) Len() int {
	return len(d.imagePaths)
}

// GetItem returns the image path and label at the given index
func (d *ImageFolderDataset) GetItem(index int) (string, int, error) {
	if index < 0 || index >= len(d.imagePaths) {
		return "", 0, fmt.Errorf("index %d out of range [0, %d)", index, len(d.imagePaths))
	}
	return d.imagePaths[index], d.labels[index], nil
}

// Record returns the item at index as a Record
func (d *ImageFolderDataset) Record(index int) (Record, error) {
	path, label, err := d.GetItem(index)
	if err != nil {
		return Record{}, err
	}
	return Record{Image: path, Label: d.classNames[label]}, nil
}

// NumClasses returns the number of classes
func (d *ImageFolderDataset) NumClasses() int {
	return len(d.classNames)
}

// ClassNames returns the list of class names
func (d *ImageFolderDataset) ClassNames() []string {
	return d.classNames
}

// ClassDistribution returns the distribution of samples per class
func (d *ImageFolderDataset) ClassDistribution() map[string]int {
	dist := make(map[string]int)
	for _, label := range d.labels {
		className := d.classNames[label]
		dist[className]++
	}
	return dist
}

// Split splits the dataset into train and validation sets. trainRatio is
// clamped to [0, 1]; NaN counts as 0.
func (d *ImageFolderDataset) Split(trainRatio float64, shuffle bool) (*ImageFolderDataset, *ImageFolderDataset) {
	if math.IsNaN(trainRatio) {
		trainRatio = 0
	}
	trainRatio = max(0, min(trainRatio, 1))
	n := len(d.imagePaths)
	trainSize := int(float64(n) * trainRatio)

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	if shuffle {
		rand.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	return d.Subset(indices[:trainSize]), d.Subset(indices[trainSize:])
}

// Subset creates a subset of the dataset with the specified indices
func (d *ImageFolderDataset) Subset(indices []int) *ImageFolderDataset {
	subset := &ImageFolderDataset{
		imagePaths: make([]string, len(indices)),
		labels:     make([]int, len(indices)),
		classNames: d.classNames,
		classToIdx: d.classToIdx,
	}

	for i, idx := range indices {
		subset.imagePaths[i] = d.imagePaths[idx]
		subset.labels[i] = d.labels[idx]
	}

	return subset
}

// FilterByClass creates a new dataset containing only samples from specified classes
func (d *ImageFolderDataset) FilterByClass(classNames []string) *ImageFolderDataset {
	validClasses := make(map[int]bool)
	for _, className := range classNames {
		if idx, exists := d.classToIdx[className]; exists {
			validClasses[idx] = true
		}
	}

	var indices []int
	for i, label := range d.labels {
		if validClasses[label] {
			indices = append(indices, i)
		}
	}

	return d.Subset(indices)
}

// String returns a string representation of the dataset
func (d *ImageFolderDataset) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ImageFolderDataset: %d samples, %d classes\n", len(d.imagePaths), len(d.classNames)))
	sb.WriteString("Class distribution:\n")

	dist := d.ClassDistribution()
	for _, className := range d.classNames {
		count := dist[className]
		sb.WriteString(fmt.Sprintf("  %s: %d samples\n", className, count))
	}

	return sb.String()
}
