package csvdiff

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDiffScenarios(t *testing.T) {
	testCases := []struct {
		name     string
		options  []Option
		left     string
		right    string
		inputOpt []InputOption
		expected []string
	}{
		{
			name: "Simple modify",
			left: "id,name,kind\n" +
				"1,lemon,fruit\n" +
				"2,strawberry,fruit",
			right: "id,name,kind\n" +
				"1,lemon,fruit\n" +
				"2,strawberry,nut",
			expected: []string{"modify@3->3[2,strawberry,fruit->2,strawberry,nut][2]"},
		},
		{
			name:  "Add and delete",
			left:  "id,v\n1,a\n2,b",
			right: "id,v\n1,a\n3,c",
			expected: []string{
				"delete@3[2,b]",
				"add@3[3,c]",
			},
		},
		{
			name:     "Reorder only",
			left:     "id,v\n1,a\n2,b",
			right:    "id,v\n2,b\n1,a",
			expected: nil,
		},
		{
			name:     "Header-only inputs",
			left:     "h1,h2",
			right:    "h1,h2",
			expected: nil,
		},
		{
			name:     "Composite key modify",
			options:  []Option{WithPrimaryKeyColumns(0, 1)},
			left:     "a,b,c,10\na,c,c,20",
			right:    "a,b,c,11\na,c,c,20",
			inputOpt: []InputOption{WithHeaders(false)},
			expected: []string{"modify@1->1[a,b,c,10->a,b,c,11][3]"},
		},
		{
			name:     "Headerless lines start at one",
			left:     "1,a\n2,b",
			right:    "1,a\n2,c",
			inputOpt: []InputOption{WithHeaders(false)},
			expected: []string{"modify@2->2[2,b->2,c][1]"},
		},
		{
			name:     "Modify reports all differing fields",
			left:     "id,a,b,c\n1,x,y,z",
			right:    "id,a,b,c\n1,x2,y,z2",
			expected: []string{"modify@2->2[1,x,y,z->1,x2,y,z2][1 3]"},
		},
		{
			name: "Quoted field with embedded newline",
			left: "id,note\n" +
				"1,\"a\nb\"\n" +
				"2,x",
			right: "id,note\n" +
				"1,\"a\nb\"\n" +
				"2,y",
			expected: []string{"modify@4->4[2,x->2,y][1]"},
		},
		{
			name:     "Empty inputs",
			left:     "",
			right:    "",
			expected: nil,
		},
		{
			name:     "Left empty",
			left:     "id,v",
			right:    "id,v\n1,a",
			expected: []string{"add@2[1,a]"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := mustDiffer(t, tc.options...)
			res := mustDiff(t, d,
				FromBytes([]byte(tc.left), tc.inputOpt...),
				FromBytes([]byte(tc.right), tc.inputOpt...),
			)
			assertRecords(t, res, tc.expected)
		})
	}
}

func TestDiffIdentity(t *testing.T) {
	data := "id,name,kind\n" +
		"1,lemon,fruit\n" +
		"2,strawberry,fruit\n" +
		"3,hazelnut,nut"

	d := mustDiffer(t)
	res := mustDiff(t, d, FromBytes([]byte(data)), FromBytes([]byte(data)))
	assertEmpty(t, res)
	if res.HasModify() {
		t.Errorf("Identity diff reports a modify")
	}
}

func TestDiffSymmetry(t *testing.T) {
	left := "id,v,w\n1,a,x\n2,b,y\n3,c,z"
	right := "id,v,w\n1,a,x\n2,B,y\n4,d,w"

	d := mustDiffer(t)
	forward := mustDiff(t, d, FromBytes([]byte(left)), FromBytes([]byte(right)))
	backward := mustDiff(t, d, FromBytes([]byte(right)), FromBytes([]byte(left)))

	if forward.Len() != backward.Len() {
		t.Fatalf("Symmetry broken: %d records forward, %d backward", forward.Len(), backward.Len())
	}

	// Mirror the backward diff and compare canonical forms.
	mirrored := &Result{}
	for _, rec := range backward.Records() {
		switch rec.Kind {
		case KindAdd:
			mirrored.append(DiffRecord{Kind: KindDelete, Delete: rec.Add})
		case KindDelete:
			mirrored.append(DiffRecord{Kind: KindAdd, Add: rec.Delete})
		case KindModify:
			mirrored.append(DiffRecord{
				Kind:         KindModify,
				Delete:       rec.Add,
				Add:          rec.Delete,
				FieldIndices: rec.FieldIndices,
			})
		}
	}

	expected := sortedStrings(recordStrings(forward))
	actual := sortedStrings(recordStrings(mirrored))
	if strings.Join(expected, "\n") != strings.Join(actual, "\n") {
		t.Errorf("Symmetry broken\n forward:  %v\n mirrored: %v", expected, actual)
	}
}

func TestDiffReorderInvariance(t *testing.T) {
	left := "id,v\n1,a\n2,b\n3,c"
	right := "id,v\n3,c\n1,a2\n2,b"

	d := mustDiffer(t)
	res := mustDiff(t, d, FromBytes([]byte(left)), FromBytes([]byte(right)))

	// The same single modify regardless of the right side's row order;
	// only its right-side line number depends on the permutation.
	if res.Len() != 1 {
		t.Fatalf("Expected exactly one record, got %v", recordStrings(res))
	}
	rec := res.Records()[0]
	if rec.Kind != KindModify {
		t.Fatalf("Expected a modify, got %v", rec)
	}
	if got := string(rec.Add.Fields[1]); got != "a2" {
		t.Errorf("Modify add-side field = %q, want %q", got, "a2")
	}
	if len(rec.FieldIndices) != 1 || rec.FieldIndices[0] != 1 {
		t.Errorf("Modify field indices = %v, want [1]", rec.FieldIndices)
	}
}

func TestDiffPartition(t *testing.T) {
	// Every key present on both sides yields at most one record, and
	// exactly zero when the non-key bytes are equal.
	left := "id,v\n1,a\n2,b\n3,c\n4,d"
	right := "id,v\n1,a\n2,x\n3,c\n4,y"

	d := mustDiffer(t)
	res := mustDiff(t, d, FromBytes([]byte(left)), FromBytes([]byte(right)))

	seen := map[string]int{}
	for _, rec := range res.Records() {
		seen[string(rec.compareRecord().Fields[0])]++
	}
	for key, n := range seen {
		if n > 1 {
			t.Errorf("Key %q mentioned %d times", key, n)
		}
	}
	if len(seen) != 2 || seen["2"] != 1 || seen["4"] != 1 {
		t.Errorf("Expected exactly keys 2 and 4 to differ, got %v", seen)
	}
}

func TestDiffDuplicateKeyLastWins(t *testing.T) {
	// A duplicate primary key within one side is undefined at the
	// semantic level; the implementation keeps the last occurrence.
	left := "id,v\n1,a\n1,b"
	right := "id,v"

	d := mustDiffer(t)
	res := mustDiff(t, d, FromBytes([]byte(left)), FromBytes([]byte(right)))
	assertRecords(t, res, []string{"delete@3[1,b]"})
}

func TestDiffSummary(t *testing.T) {
	left := "id,v\n1,a\n2,b\n3,c"
	right := "id,v\n1,a2\n2,b\n4,d"

	d := mustDiffer(t)
	res := mustDiff(t, d, FromBytes([]byte(left)), FromBytes([]byte(right)))

	summary := res.Summary()
	expected := Summary{Adds: 1, Deletes: 1, Modifies: 1, Left: 3, Right: 3}
	if summary != expected {
		t.Errorf("Summary() = %+v, want %+v", summary, expected)
	}
	if !res.HasModify() {
		t.Errorf("HasModify() = false, want true")
	}
}

func TestDiffSchemaMismatch(t *testing.T) {
	testCases := []struct {
		name       string
		options    []Option
		left       string
		right      string
		violations int
	}{
		{
			name:       "Column count mismatch",
			left:       "a,b\n1,2",
			right:      "a,b,c\n1,2,3",
			violations: 1,
		},
		{
			name:       "Primary key out of range",
			options:    []Option{WithPrimaryKeyColumns(5)},
			left:       "a,b\n1,2",
			right:      "a,b\n1,2",
			violations: 2, // out of range on both sides
		},
		{
			name:       "Width and key violations accumulate",
			options:    []Option{WithPrimaryKeyColumns(2)},
			left:       "a,b\n1,2",
			right:      "a,b,c\n1,2,3",
			violations: 2, // width mismatch + key out of range on the left
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := mustDiffer(t, tc.options...)
			_, err := d.Diff(FromBytes([]byte(tc.left)), FromBytes([]byte(tc.right)))
			if !errors.Is(err, ErrSchemaMismatch) {
				t.Fatalf("Diff() error = %v, want ErrSchemaMismatch", err)
			}
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("Diff() error is not a *SchemaError: %v", err)
			}
			if len(se.Errors) != tc.violations {
				t.Errorf("SchemaError has %d violations, want %d: %v", len(se.Errors), tc.violations, err)
			}
		})
	}
}

func TestDiffParseError(t *testing.T) {
	left := "id,v\n1,a\n2,b"
	right := "id,v\n1,a\n2,\"b"

	d := mustDiffer(t)
	_, err := d.Diff(FromBytes([]byte(left)), FromBytes([]byte(right)))
	if err == nil {
		t.Fatalf("Diff() succeeded on malformed CSV")
	}
	var parseErr *csv.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Diff() error = %v, want a wrapped *csv.ParseError", err)
	}
}

func TestDiffInconsistentWidthWithinSide(t *testing.T) {
	left := "id,v\n1,a"
	right := "id,v\n1,a\n2,b,c"

	d := mustDiffer(t)
	_, err := d.Diff(FromBytes([]byte(left)), FromBytes([]byte(right)))
	if err == nil {
		t.Fatalf("Diff() succeeded on a side with inconsistent record widths")
	}
	var parseErr *csv.ParseError
	if !errors.As(err, &parseErr) || !errors.Is(parseErr.Err, csv.ErrFieldCount) {
		t.Errorf("Diff() error = %v, want a wrapped field-count parse error", err)
	}
}

func TestDiffSpawners(t *testing.T) {
	left := "id,v\n1,a\n2,b\n3,c"
	right := "id,v\n1,a2\n2,b\n4,d"
	expected := []string{
		"modify@2->2[1,a->1,a2][1]",
		"delete@4[3,c]",
		"add@4[4,d]",
	}

	spawners := []struct {
		name    string
		spawner TaskSpawner
	}{
		{"GoroutineSpawner", GoroutineSpawner{}},
		{"GroupSpawner", &GroupSpawner{}},
		{"GroupSpawner with limit", &GroupSpawner{Limit: 2}}, // raised to the task count internally
	}

	for _, tc := range spawners {
		t.Run(tc.name, func(t *testing.T) {
			d := mustDiffer(t, WithTaskSpawner(tc.spawner))
			res := mustDiff(t, d, FromBytes([]byte(left)), FromBytes([]byte(right)))
			assertRecords(t, res, expected)
		})
	}
}

func TestDiffLargeInput(t *testing.T) {
	// Enough rows to wrap the bounded channel several times.
	const rows = 25_000

	var leftBuf, rightBuf strings.Builder
	leftBuf.WriteString("id,v\n")
	rightBuf.WriteString("id,v\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&leftBuf, "%d,value-%d\n", i, i)
		if i%1000 == 0 {
			fmt.Fprintf(&rightBuf, "%d,changed-%d\n", i, i)
		} else {
			fmt.Fprintf(&rightBuf, "%d,value-%d\n", i, i)
		}
	}

	d := mustDiffer(t)
	res := mustDiff(t, d, FromBytes([]byte(leftBuf.String())), FromBytes([]byte(rightBuf.String())))

	summary := res.Summary()
	if summary.Modifies != rows/1000 || summary.Adds != 0 || summary.Deletes != 0 {
		t.Errorf("Summary() = %+v, want %d modifies only", summary, rows/1000)
	}
	for _, rec := range res.Records() {
		if len(rec.FieldIndices) != 1 || rec.FieldIndices[0] != 1 {
			t.Errorf("Modify field indices = %v, want [1]", rec.FieldIndices)
		}
	}
}

func TestNewValidation(t *testing.T) {
	t.Run("Negative key column", func(t *testing.T) {
		if _, err := New(WithPrimaryKeyColumns(-1)); err == nil {
			t.Errorf("New() accepted a negative primary-key column")
		}
	})

	t.Run("No key columns", func(t *testing.T) {
		if _, err := New(WithPrimaryKeyColumns()); err == nil {
			t.Errorf("New() accepted an empty primary key")
		}
	})

	t.Run("Duplicate key columns are deduplicated", func(t *testing.T) {
		d := mustDiffer(t, WithPrimaryKeyColumns(2, 0, 2, 0))
		if len(d.keyColumns) != 2 || d.keyColumns[0] != 0 || d.keyColumns[1] != 2 {
			t.Errorf("keyColumns = %v, want [0 2]", d.keyColumns)
		}
	})
}
