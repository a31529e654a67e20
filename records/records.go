// Package records serializes enumerated examples. A Writer is the sink the
// enumerator's records are handed to; a Reader streams them back.
package records

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tsawler/go-catsdogs/vision/dataset"
)

// Format defines the serialization format
type Format int

const (
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = iota
	// FormatProto writes varint length-delimited google.protobuf.Struct messages.
	FormatProto
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatProto:
		return "proto"
	default:
		return "unknown"
	}
}

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json", "jsonl":
		return FormatJSON, nil
	case "proto", "protobuf", "pb":
		return FormatProto, nil
	default:
		return 0, errors.Errorf("unsupported record format %q", name)
	}
}

// Writer encodes records to an underlying stream
type Writer struct {
	w      *bufio.Writer
	closer io.Closer
	format Format
	enc    *json.Encoder
	count  int
}

// NewWriter returns a Writer encoding to w. Close flushes but does not close w.
func NewWriter(w io.Writer, format Format) (*Writer, error) {
	if format != FormatJSON && format != FormatProto {
		return nil, errors.Errorf("unsupported record format: %s", format)
	}
	bw := bufio.NewWriter(w)
	rw := &Writer{w: bw, format: format}
	if format == FormatJSON {
		rw.enc = json.NewEncoder(bw)
	}
	return rw, nil
}

// Create opens a file sink at path, truncating any existing file.
func Create(path string, format Format) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create records file %q", path)
	}
	w, err := NewWriter(f, format)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// Write encodes one record.
func (w *Writer) Write(rec dataset.Record) error {
	switch w.format {
	case FormatJSON:
		if err := w.enc.Encode(rec); err != nil {
			return errors.Wrapf(err, "encode record %q", rec.Image)
		}
	case FormatProto:
		msg, err := structpb.NewStruct(map[string]any{
			"image": rec.Image,
			"label": rec.Label,
		})
		if err != nil {
			return errors.Wrapf(err, "build record %q", rec.Image)
		}
		if _, err := protodelim.MarshalTo(w.w, msg); err != nil {
			return errors.Wrapf(err, "encode record %q", rec.Image)
		}
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.count
}

// Close flushes buffered records and closes the file opened by Create.
func (w *Writer) Close() error {
	err := w.w.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
		w.closer = nil
	}
	if err != nil {
		return errors.Wrap(err, "close records writer")
	}
	return nil
}

// Reader decodes records written by Writer
type Reader struct {
	r      *bufio.Reader
	closer io.Closer
	format Format
	dec    *json.Decoder
}

// NewReader returns a Reader decoding from r.
func NewReader(r io.Reader, format Format) (*Reader, error) {
	if format != FormatJSON && format != FormatProto {
		return nil, errors.Errorf("unsupported record format: %s", format)
	}
	br := bufio.NewReader(r)
	rr := &Reader{r: br, format: format}
	if format == FormatJSON {
		rr.dec = json.NewDecoder(br)
	}
	return rr, nil
}

// Open opens a records file written by Create.
func Open(path string, format Format) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open records file %q", path)
	}
	r, err := NewReader(f, format)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (dataset.Record, error) {
	var rec dataset.Record
	switch r.format {
	case FormatJSON:
		if err := r.dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return rec, io.EOF
			}
			return rec, errors.Wrap(err, "decode record")
		}
	case FormatProto:
		msg := &structpb.Struct{}
		if err := protodelim.UnmarshalFrom(r.r, msg); err != nil {
			if err == io.EOF {
				return rec, io.EOF
			}
			return rec, errors.Wrap(err, "decode record")
		}
		fields := msg.GetFields()
		rec.Image = fields["image"].GetStringValue()
		rec.Label = fields["label"].GetStringValue()
	}
	if rec.Image == "" || rec.Label == "" {
		return rec, errors.New("decode record: missing image or label")
	}
	return rec, nil
}

// ReadAll returns every remaining record.
func (r *Reader) ReadAll() ([]dataset.Record, error) {
	var out []dataset.Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Close closes the file opened by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
