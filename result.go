package csvdiff

import (
	"bytes"
	"fmt"
	"sort"
)

// Result is a fully materialized diff. Records are unsorted until one of
// the sort methods is called; between the two sides, arrival order is
// non-deterministic.
type Result struct {
	records []DiffRecord

	adds     int
	deletes  int
	modifies int

	leftTotal  uint64
	rightTotal uint64
}

// Summary are the headline counts of a diff.
type Summary struct {
	Adds     int    // records only in the right input
	Deletes  int    // records only in the left input
	Modifies int    // records in both inputs with differing fields
	Left     uint64 // data records scanned in the left input
	Right    uint64 // data records scanned in the right input
}

func (r *Result) append(rec DiffRecord) {
	switch rec.Kind {
	case KindAdd:
		r.adds++
	case KindDelete:
		r.deletes++
	case KindModify:
		r.modifies++
	}
	r.records = append(r.records, rec)
}

// Records returns the diff records. The slice is owned by the Result;
// callers must not modify it while also sorting.
func (r *Result) Records() []DiffRecord {
	return r.records
}

// Len returns the number of diff records. A length of zero means the two
// inputs are semantically equal.
func (r *Result) Len() int {
	return len(r.records)
}

// HasModify reports whether the result contains at least one Modify.
func (r *Result) HasModify() bool {
	return r.modifies > 0
}

// Summary returns the headline counts of the diff.
func (r *Result) Summary() Summary {
	return Summary{
		Adds:     r.adds,
		Deletes:  r.deletes,
		Modifies: r.modifies,
		Left:     r.leftTotal,
		Right:    r.rightTotal,
	}
}

// SortByLine sorts the records by ascending line number. A Modify sorts
// by the smaller of its two line numbers. Records on the same line are
// ordered Delete, Modify, Add.
func (r *Result) SortByLine() {
	sort.SliceStable(r.records, func(i, j int) bool {
		li, lj := r.records[i].sortLine(), r.records[j].sortLine()
		if li != lj {
			return li < lj
		}
		return r.records[i].Kind < r.records[j].Kind
	})
}

// SortByColumns sorts the records by the raw bytes of the given columns,
// comparing the first column and breaking ties with the following ones.
// A Modify is compared on its delete-side record. The sort is stable.
//
// Returns ErrColumnOutOfRange if any column exceeds the width of any
// record in the result; the result is left unsorted but remains valid.
func (r *Result) SortByColumns(columns ...int) error {
	for _, rec := range r.records {
		width := len(rec.compareRecord().Fields)
		for _, c := range columns {
			if c < 0 || c >= width {
				return fmt.Errorf("%w: column %d, record has %d columns", ErrColumnOutOfRange, c, width)
			}
		}
	}

	sort.SliceStable(r.records, func(i, j int) bool {
		fi, fj := r.records[i].compareRecord().Fields, r.records[j].compareRecord().Fields
		for _, c := range columns {
			if cmp := bytes.Compare(fi[c], fj[c]); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	return nil
}
