package csvdiff

import (
	"encoding/csv"
	"fmt"
	"io"
)

// seekReader re-reads single records from an input by byte offset. The
// matcher owns one per side, independent of the producer's sequential
// session, so resolution can run while the scan is still in flight.
type seekReader struct {
	rs    io.ReadSeeker
	comma rune
}

// recordAt seeks to the start of a record and reads exactly that record.
// The CSV reader is rebuilt per call because its internal buffering does
// not survive a seek of the underlying source.
func (sr *seekReader) recordAt(offset uint64) ([][]byte, error) {
	if _, err := sr.rs.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to record at offset %d: %w", offset, err)
	}

	r := csv.NewReader(sr.rs)
	r.Comma = sr.comma
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to re-read record at offset %d: %w", offset, err)
	}

	out := make([][]byte, len(fields))
	for i, f := range fields {
		out[i] = []byte(f)
	}
	return out, nil
}

func (sr *seekReader) close() {
	closeIfCloser(sr.rs)
}
