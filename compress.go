package csvdiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Magic bytes of the supported compression formats.
var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLz4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// maybeDecompress sniffs the first bytes of rs. When a known compression
// frame is recognized the whole stream is decompressed and the buffer
// returned with compressed=true; otherwise rs is rewound and the caller
// keeps using it directly. Decompression happens up front because the
// resolver seeks by byte offset into the uncompressed record stream.
func maybeDecompress(rs io.ReadSeeker) (data []byte, compressed bool, err error) {
	magic := make([]byte, 4)
	n, err := io.ReadFull(rs, magic)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, false, err
	}
	magic = magic[:n]
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, false, err
	}

	var dr io.Reader
	switch {
	case bytes.HasPrefix(magic, magicGzip):
		gz, err := gzip.NewReader(rs)
		if err != nil {
			return nil, false, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		dr = gz
	case bytes.HasPrefix(magic, magicZstd):
		zr, err := zstd.NewReader(rs)
		if err != nil {
			return nil, false, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		dr = zr
	case bytes.HasPrefix(magic, magicLz4):
		dr = lz4.NewReader(rs)
	default:
		return nil, false, nil
	}

	data, err = io.ReadAll(dr)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
