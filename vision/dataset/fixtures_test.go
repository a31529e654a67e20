package dataset

import (
	"fmt"
	"path"
	"testing"

	"github.com/tsawler/go-catsdogs/storage"
)

// jfifHeader is the start of a baseline JPEG: SOI, then an APP0 segment
// whose identifier "JFIF\x00" sits at bytes 6-10.
var jfifHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00}

// corruptContent has no marker, like the zero-filled or text files found in
// the published archive.
var corruptContent = []byte("this is not an image file")

// writeFile writes data to name on fsys or fails the test.
func writeFile(t testing.TB, fsys *storage.BillyFS, name string, data []byte) {
	t.Helper()
	if err := fsys.WriteFile(name, data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// writeImages writes good valid and corrupt invalid .jpg files into dir.
func writeImages(t testing.TB, fsys *storage.BillyFS, dir string, good, corrupt int) {
	t.Helper()
	for i := 0; i < good; i++ {
		writeFile(t, fsys, path.Join(dir, fmt.Sprintf("%d.jpg", i)), jfifHeader)
	}
	for i := 0; i < corrupt; i++ {
		writeFile(t, fsys, path.Join(dir, fmt.Sprintf("bad_%d.jpg", i)), corruptContent)
	}
}

// newArchive builds root/PetImages/{Cat,Dog} on an in-memory filesystem
// and returns it.
func newArchive(t testing.TB, root string, cats, badCats, dogs, badDogs int) *storage.BillyFS {
	t.Helper()
	fsys := storage.NewMemFS()
	writeFile(t, fsys, path.Join(root, "readme[1].txt"), []byte("Cats vs Dogs"))
	writeImages(t, fsys, path.Join(root, "PetImages", "Cat"), cats, badCats)
	writeImages(t, fsys, path.Join(root, "PetImages", "Dog"), dogs, badDogs)
	return fsys
}
