package csvdiff

import (
	"github.com/zeebo/xxh3"
)

// fieldSeparator is written between fields before hashing. CSV fields are
// hashed unescaped, and 0x1F (ASCII unit separator) terminating every
// field keeps adjacent fields from running into each other: without it,
// the keys ("ab","c") and ("a","bc") would hash identically.
var fieldSeparator = [1]byte{0x1F}

// fieldsHasher turns a CSV record into its 128-bit key and value
// fingerprints. One instance lives per producer and is reused for every
// record of that side.
type fieldsHasher struct {
	keyColumns []int
	isKey      []bool // indexed by column, sized lazily to the record width
	digest     *xxh3.Hasher
}

func newFieldsHasher(keyColumns []int) *fieldsHasher {
	return &fieldsHasher{
		keyColumns: keyColumns,
		digest:     xxh3.New(),
	}
}

// hashRecord computes the key fingerprint over the key columns in column
// order and the value fingerprint over all remaining columns in column
// order. Key columns beyond the record width are skipped; the schema
// check rejects such inputs before a producer ever runs, so this only
// guards against misuse of the internal seam.
func (fh *fieldsHasher) hashRecord(fields []string) (key, value xxh3.Uint128) {
	if len(fh.isKey) < len(fields) {
		fh.isKey = make([]bool, len(fields))
		for _, c := range fh.keyColumns {
			if c < len(fh.isKey) {
				fh.isKey[c] = true
			}
		}
	}

	fh.digest.Reset()
	for _, c := range fh.keyColumns {
		if c >= len(fields) {
			continue
		}
		_, _ = fh.digest.WriteString(fields[c])
		_, _ = fh.digest.Write(fieldSeparator[:])
	}
	key = fh.digest.Sum128()

	fh.digest.Reset()
	for i, f := range fields {
		if fh.isKey[i] {
			continue
		}
		_, _ = fh.digest.WriteString(f)
		_, _ = fh.digest.Write(fieldSeparator[:])
	}
	value = fh.digest.Sum128()

	return key, value
}
