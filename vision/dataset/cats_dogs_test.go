package dataset

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tsawler/go-catsdogs/storage"
)

// TestNewCatsDogsDataset tests cats and dogs dataset creation
func TestNewCatsDogsDataset(t *testing.T) {
	t.Run("ValidDataset", func(t *testing.T) {
		catsCount := 10
		dogsCount := 15
		fsys := newArchive(t, "/data", catsCount, 2, dogsCount, 1)

		dataset, err := NewCatsDogsDataset(fsys, "/data", 0, WithExpectedCorrupt(3))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		expectedTotal := catsCount + dogsCount
		if dataset.Len() != expectedTotal {
			t.Errorf("Expected %d images, got %d", expectedTotal, dataset.Len())
		}

		if dataset.NumClasses() != 2 {
			t.Errorf("Expected 2 classes, got %d", dataset.NumClasses())
		}

		dist := dataset.ClassDistribution()
		if dist["cat"] != catsCount {
			t.Errorf("Expected %d cats, got %d", catsCount, dist["cat"])
		}
		if dist["dog"] != dogsCount {
			t.Errorf("Expected %d dogs, got %d", dogsCount, dist["dog"])
		}

		if dataset.classToIdx["cat"] != 0 {
			t.Errorf("Expected cat index 0, got %d", dataset.classToIdx["cat"])
		}
		if dataset.classToIdx["dog"] != 1 {
			t.Errorf("Expected dog index 1, got %d", dataset.classToIdx["dog"])
		}

		if dataset.Stats().Skipped != 3 {
			t.Errorf("Expected 3 skipped, got %d", dataset.Stats().Skipped)
		}
	})

	t.Run("WithMaxSamplesPerClass", func(t *testing.T) {
		maxSamplesPerClass := 10
		fsys := newArchive(t, "/data", 20, 0, 25, 0)

		dataset, err := NewCatsDogsDataset(fsys, "/data", maxSamplesPerClass, WithExpectedCorrupt(0))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if dataset.Len() != maxSamplesPerClass*2 {
			t.Errorf("Expected %d images (limited), got %d", maxSamplesPerClass*2, dataset.Len())
		}

		dist := dataset.ClassDistribution()
		if dist["cat"] != maxSamplesPerClass || dist["dog"] != maxSamplesPerClass {
			t.Errorf("Expected %d per class, got %v", maxSamplesPerClass, dist)
		}

		// The limit applies to the view, not to the scan.
		if dataset.Stats().Emitted != 45 {
			t.Errorf("Expected 45 emitted records, got %d", dataset.Stats().Emitted)
		}
	})

	t.Run("WithMaxSamplesLargerThanAvailable", func(t *testing.T) {
		fsys := newArchive(t, "/data", 5, 0, 7, 0)

		dataset, err := NewCatsDogsDataset(fsys, "/data", 10, WithExpectedCorrupt(0))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if dataset.Len() != 12 {
			t.Errorf("Expected 12 images (all available), got %d", dataset.Len())
		}
	})

	t.Run("OnlyCorruptImages", func(t *testing.T) {
		fsys := newArchive(t, "/data", 0, 2, 0, 2)

		_, err := NewCatsDogsDataset(fsys, "/data", 0, WithExpectedCorrupt(4))
		if err == nil {
			t.Fatal("Expected error for empty dataset")
		}
		if !strings.Contains(err.Error(), "no images found") {
			t.Errorf("Expected 'no images found' error, got: %v", err)
		}
	})

	t.Run("CorruptCountMismatch", func(t *testing.T) {
		fsys := newArchive(t, "/data", 5, 1, 5, 0)

		_, err := NewCatsDogsDataset(fsys, "/data", 0)
		var integrityErr *IntegrityError
		if !errors.As(err, &integrityErr) {
			t.Fatalf("Expected IntegrityError, got: %v", err)
		}
		if integrityErr.Actual != 1 {
			t.Errorf("Expected 1 corrupt image, got %d", integrityErr.Actual)
		}
	})

	t.Run("NonexistentDirectory", func(t *testing.T) {
		fsys := newArchive(t, "/data", 1, 0, 1, 0)

		_, err := NewCatsDogsDataset(fsys, "/nonexistent/path", 0)
		if !errors.Is(err, ErrPrecondition) {
			t.Errorf("Expected precondition error, got: %v", err)
		}
	})
}

// TestCatsDogsDatasetGetItem tests item retrieval
func TestCatsDogsDatasetGetItem(t *testing.T) {
	catsCount := 3
	dogsCount := 4
	fsys := newArchive(t, "/data", catsCount, 0, dogsCount, 0)

	dataset, err := NewCatsDogsDataset(fsys, "/data", 0, WithExpectedCorrupt(0))
	if err != nil {
		t.Fatalf("Failed to create dataset: %v", err)
	}

	catCount := 0
	dogCount := 0
	for i := 0; i < dataset.Len(); i++ {
		imagePath, label, err := dataset.GetItem(i)
		if err != nil {
			t.Errorf("Unexpected error at index %d: %v", i, err)
		}

		switch label {
		case 0:
			catCount++
			if !strings.Contains(imagePath, "/Cat/") {
				t.Errorf("Expected cat path at index %d with label 0, got: %s", i, imagePath)
			}
		case 1:
			dogCount++
			if !strings.Contains(imagePath, "/Dog/") {
				t.Errorf("Expected dog path at index %d with label 1, got: %s", i, imagePath)
			}
		default:
			t.Errorf("Invalid label %d at index %d", label, i)
		}
	}

	if catCount != catsCount {
		t.Errorf("Expected %d cat items, got %d", catsCount, catCount)
	}
	if dogCount != dogsCount {
		t.Errorf("Expected %d dog items, got %d", dogsCount, dogCount)
	}
}

// TestCatsDogsDatasetSummary tests the summary method
func TestCatsDogsDatasetSummary(t *testing.T) {
	catsCount := 8
	dogsCount := 12
	fsys := newArchive(t, "/data", catsCount, 1, dogsCount, 1)

	dataset, err := NewCatsDogsDataset(fsys, "/data", 0, WithExpectedCorrupt(2))
	if err != nil {
		t.Fatalf("Failed to create dataset: %v", err)
	}

	summary := dataset.Summary()
	expectedSubstrings := []string{
		"Cats & Dogs Dataset",
		fmt.Sprintf("%d total images", catsCount+dogsCount),
		fmt.Sprintf("%d cats", catsCount),
		fmt.Sprintf("%d dogs", dogsCount),
		"2 corrupt skipped",
	}

	for _, substr := range expectedSubstrings {
		if !strings.Contains(summary, substr) {
			t.Errorf("Expected summary to contain '%s', got: %s", substr, summary)
		}
	}
}

// TestCatsDogsDatasetCustomLabels tests that class names follow WithLabels
func TestCatsDogsDatasetCustomLabels(t *testing.T) {
	fsys := storage.NewMemFS()
	writeImages(t, fsys, "/data/Pets/Hamster", 3, 1)
	writeImages(t, fsys, "/data/Pets/Bird", 2, 0)

	dataset, err := NewCatsDogsDataset(fsys, "/data", 0, WithLabels("hamster", "bird"), WithExpectedCorrupt(1))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := dataset.ClassNames(); strings.Join(got, ",") != "bird,hamster" {
		t.Errorf("Expected classes [bird hamster], got %v", got)
	}
	dist := dataset.ClassDistribution()
	if dist["hamster"] != 3 || dist["bird"] != 2 {
		t.Errorf("Unexpected distribution: %v", dist)
	}
	if summary := dataset.Summary(); !strings.Contains(summary, "2 birds, 3 hamsters") {
		t.Errorf("Unexpected summary: %s", summary)
	}
}

// BenchmarkCatsDogsDatasetCreation benchmarks enumeration of an in-memory archive
func BenchmarkCatsDogsDatasetCreation(b *testing.B) {
	fsys := newArchive(b, "/data", 1000, 50, 1000, 50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := NewCatsDogsDataset(fsys, "/data", 0, WithExpectedCorrupt(100)); err != nil {
			b.Fatalf("Failed to create dataset: %v", err)
		}
	}
}
