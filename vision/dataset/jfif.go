package dataset

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

const (
	// HeaderSize is the number of leading bytes searched for the marker.
	HeaderSize = 10

	// ImageExtension is the case-sensitive suffix of candidate files.
	ImageExtension = ".jpg"
)

var jfifMarker = []byte("JFIF")

// HasJFIFMarker reads at most HeaderSize bytes from r and reports whether
// they contain the JFIF marker. Files shorter than HeaderSize are checked
// on whatever bytes they have.
func HasJFIFMarker(r io.Reader) (bool, error) {
	var head [HeaderSize]byte
	n, err := io.ReadFull(r, head[:])
	switch err {
	case nil, io.EOF, io.ErrUnexpectedEOF:
	default:
		return false, errors.Wrap(err, "read header")
	}
	return bytes.Contains(head[:n], jfifMarker), nil
}
