package records

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-catsdogs/vision/dataset"
)

var sample = []dataset.Record{
	{Image: "/data/PetImages/Cat/0.jpg", Label: "cat"},
	{Image: "/data/PetImages/Dog/nested/11702.jpg", Label: "dog"},
	{Image: "/data/PetImages/Cat/\"quoted\".jpg", Label: "cat"},
}

func TestFileSinkRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatProto} {
		t.Run(format.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.records")

			w, err := Create(path, format)
			require.NoError(t, err)
			for _, rec := range sample {
				require.NoError(t, w.Write(rec))
			}
			assert.Equal(t, len(sample), w.Count())
			require.NoError(t, w.Close())

			r, err := Open(path, format)
			require.NoError(t, err)
			defer r.Close()

			got, err := r.ReadAll()
			require.NoError(t, err)
			assert.Equal(t, sample, got)
		})
	}
}

func TestJSONLinesLayout(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, FormatJSON)
	require.NoError(t, err)
	require.NoError(t, w.Write(sample[0]))
	require.NoError(t, w.Write(sample[1]))
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"image":"/data/PetImages/Cat/0.jpg","label":"cat"}`, lines[0])
}

func TestReaderEmptyStream(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatProto} {
		r, err := NewReader(bytes.NewReader(nil), format)
		require.NoError(t, err)
		_, err = r.Next()
		assert.Equal(t, io.EOF, err, format.String())
	}
}

func TestReaderTruncatedProto(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, FormatProto)
	require.NoError(t, err)
	require.NoError(t, w.Write(sample[0]))
	require.NoError(t, w.Close())

	truncated := buf.Bytes()[:buf.Len()-3]
	r, err := NewReader(bytes.NewReader(truncated), FormatProto)
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestReaderMissingFields(t *testing.T) {
	r, err := NewReader(strings.NewReader(`{"image":"/x.jpg"}`+"\n"), FormatJSON)
	require.NoError(t, err)

	_, err = r.Next()
	assert.ErrorContains(t, err, "missing image or label")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSONL", FormatJSON, false},
		{"proto", FormatProto, false},
		{"protobuf", FormatProto, false},
		{"tfrecord", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.name)
		if tt.wantErr {
			assert.Error(t, err, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := NewWriter(io.Discard, Format(42))
	assert.Error(t, err)
}
