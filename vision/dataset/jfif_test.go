package dataset

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

func TestHasJFIFMarker(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"BaselineJPEG", jfifHeader, true},
		{"MarkerAtStart", []byte("JFIF and more"), true},
		{"ExactlyMarker", []byte("JFIF"), true},
		{"MarkerAtLastFullPosition", []byte("xxxxxxJFIF"), true},
		{"MarkerCrossesHeader", []byte("xxxxxxxJFIF"), false},
		{"MarkerPastHeader", []byte("0123456789JFIF"), false},
		{"ExifJPEG", []byte{0xFF, 0xD8, 0xFF, 0xE1, 0x00, 0x10, 'E', 'x', 'i', 'f', 0x00, 0x00}, false},
		{"LowercaseMarker", []byte("\xFF\xD8\xFF\xE0\x00\x10jfif"), false},
		{"ShortFile", []byte("JFI"), false},
		{"Empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HasJFIFMarker(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasJFIFMarker(%q) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

func TestHasJFIFMarkerOneByteReads(t *testing.T) {
	got, err := HasJFIFMarker(iotest.OneByteReader(bytes.NewReader(jfifHeader)))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !got {
		t.Error("Expected marker to be found across short reads")
	}
}

func TestHasJFIFMarkerReadError(t *testing.T) {
	readErr := errors.New("device not ready")
	_, err := HasJFIFMarker(io.MultiReader(bytes.NewReader([]byte("JF")), iotest.ErrReader(readErr)))
	if !errors.Is(err, readErr) {
		t.Errorf("Expected read error to propagate, got: %v", err)
	}
}
