package csvdiff

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Input is one side of a diff: a seekable CSV byte source plus its
// per-input configuration. Construct inputs with FromBytes, FromFile or
// FromReader.
//
// Every input is opened three times during a diff: once to peek its
// width, once for the sequential scan and once for seeking back to
// suspected modifications. The scan and seek sessions are independent,
// so resolution can run while the scan is still in flight.
type Input struct {
	data []byte   // in-memory source; for a compressed file, its decompressed bytes once opened
	fs   afero.Fs // filesystem for file-backed inputs
	path string

	headers bool
	comma   rune
}

// InputOption configures a single Input.
type InputOption func(*Input)

// WithHeaders controls whether the first record of the input is a header
// row. Headers are consumed before diffing and are never reported as a
// difference; with headers enabled the first data record is line 2.
// The default is true.
func WithHeaders(headers bool) InputOption {
	return func(in *Input) {
		in.headers = headers
	}
}

// WithDelimiter sets the field delimiter for the input. The default is ','.
// Both sides of a diff must use the same delimiter.
func WithDelimiter(comma rune) InputOption {
	return func(in *Input) {
		in.comma = comma
	}
}

func newInput(options ...InputOption) Input {
	in := Input{
		headers: true,
		comma:   ',',
	}
	for _, option := range options {
		option(&in)
	}
	return in
}

// FromBytes creates an Input over in-memory CSV data.
func FromBytes(data []byte, options ...InputOption) Input {
	in := newInput(options...)
	in.data = data
	return in
}

// FromFile creates an Input over a CSV file. A nil fs means the OS
// filesystem. Files compressed with gzip, zstd or lz4 are recognized by
// their magic bytes and decompressed into a seekable buffer when the
// input is opened.
func FromFile(fs afero.Fs, path string, options ...InputOption) Input {
	in := newInput(options...)
	if fs == nil {
		fs = afero.NewOsFs()
	}
	in.fs = fs
	in.path = path
	return in
}

// FromReader creates an Input by buffering a non-seekable source into
// memory. The reader is consumed completely before FromReader returns.
func FromReader(r io.Reader, options ...InputOption) (Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Input{}, fmt.Errorf("failed to buffer input: %w", err)
	}
	return FromBytes(data, options...), nil
}

// open returns a fresh read session over the input's bytes. Each call is
// independent of previous ones.
func (in *Input) open() (io.ReadSeeker, error) {
	if in.data != nil || in.path == "" {
		return bytes.NewReader(in.data), nil
	}

	f, err := in.fs.Open(in.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", in.path, err)
	}
	data, compressed, err := maybeDecompress(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to decompress %s: %w", in.path, err)
	}
	if compressed {
		// Keep the decompressed copy so the scan and resolve sessions
		// don't inflate the file again. The file itself is no longer
		// needed.
		_ = f.Close()
		in.data = data
		return bytes.NewReader(in.data), nil
	}
	return f, nil
}

// newScanReader builds the CSV reader used for the sequential scan.
// FieldsPerRecord is left at 0 so encoding/csv enforces a consistent
// width within the side, starting from the first record.
func (in *Input) newScanReader(rs io.ReadSeeker) *csv.Reader {
	r := csv.NewReader(rs)
	r.Comma = in.comma
	r.ReuseRecord = true
	return r
}

// peekWidth reports the column count of the input's first record, header
// or not. ok is false for an empty input.
func (in *Input) peekWidth() (width int, ok bool, err error) {
	rs, err := in.open()
	if err != nil {
		return 0, false, err
	}
	defer closeIfCloser(rs)

	r := in.newScanReader(rs)
	record, err := r.Read()
	if errors.Is(err, io.EOF) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return len(record), true, nil
}

func closeIfCloser(rs io.ReadSeeker) {
	if c, ok := rs.(io.Closer); ok {
		_ = c.Close()
	}
}
