package csvdiff

import (
	"fmt"
	"strings"
)

// DiffKind classifies a DiffRecord.
//
// The declaration order doubles as the tie-break order used by
// Result.SortByLine: Delete < Modify < Add.
type DiffKind int

const (
	// KindDelete marks a record whose primary key exists only in the left input.
	KindDelete DiffKind = iota
	// KindModify marks a record whose primary key exists in both inputs
	// with at least one differing non-key column.
	KindModify
	// KindAdd marks a record whose primary key exists only in the right input.
	KindAdd
)

// String implements fmt.Stringer.
func (k DiffKind) String() string {
	switch k {
	case KindDelete:
		return "delete"
	case KindModify:
		return "modify"
	case KindAdd:
		return "add"
	default:
		return fmt.Sprintf("DiffKind(%d)", int(k))
	}
}

// RecordLine is an original CSV record together with its 1-based line
// number in the input it came from. Fields hold the unescaped field
// bytes exactly as they appeared in the input.
type RecordLine struct {
	Fields [][]byte
	Line   uint64
}

// fieldsString joins the fields for display.
func (rl *RecordLine) fieldsString() string {
	parts := make([]string, len(rl.Fields))
	for i, f := range rl.Fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

// DiffRecord is a single record-level difference between the two inputs.
//
// Delete is set for KindDelete and KindModify (the left-side record),
// Add is set for KindAdd and KindModify (the right-side record).
// FieldIndices is set only for KindModify and lists, in strictly
// ascending order, every column whose bytes differ between the two
// records.
type DiffRecord struct {
	Kind         DiffKind
	Delete       *RecordLine
	Add          *RecordLine
	FieldIndices []int
}

// String implements fmt.Stringer.
func (d DiffRecord) String() string {
	switch d.Kind {
	case KindDelete:
		return fmt.Sprintf("delete(line %d: %s)", d.Delete.Line, d.Delete.fieldsString())
	case KindAdd:
		return fmt.Sprintf("add(line %d: %s)", d.Add.Line, d.Add.fieldsString())
	case KindModify:
		return fmt.Sprintf("modify(line %d: %s -> line %d: %s, fields %v)",
			d.Delete.Line, d.Delete.fieldsString(), d.Add.Line, d.Add.fieldsString(), d.FieldIndices)
	default:
		return fmt.Sprintf("DiffRecord{Kind: %d}", int(d.Kind))
	}
}

// sortLine returns the line number used by Result.SortByLine.
// A Modify sorts by the smaller of its two line numbers.
func (d DiffRecord) sortLine() uint64 {
	switch d.Kind {
	case KindDelete:
		return d.Delete.Line
	case KindAdd:
		return d.Add.Line
	default:
		if d.Delete.Line < d.Add.Line {
			return d.Delete.Line
		}
		return d.Add.Line
	}
}

// compareRecord returns the record used for column-based comparisons.
// A Modify compares on its delete-side record.
func (d DiffRecord) compareRecord() *RecordLine {
	if d.Kind == KindAdd {
		return d.Add
	}
	return d.Delete
}
