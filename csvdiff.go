package csvdiff

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Differ compares two CSV inputs that share a primary key. A Differ is
// immutable after New and safe for concurrent use; each Diff or DiffIter
// call runs its own pipeline.
type Differ struct {
	keyColumns []int
	spawner    TaskSpawner
	logger     *zap.Logger
}

// New creates a Differ. By default the primary key is column 0, tasks run
// on plain goroutines and logging is disabled.
func New(options ...Option) (*Differ, error) {
	d := &Differ{
		keyColumns: []int{0},
		spawner:    GoroutineSpawner{},
		logger:     zap.NewNop(),
	}

	// Apply options
	for _, option := range options {
		option(d)
	}

	if len(d.keyColumns) == 0 {
		return nil, fmt.Errorf("at least one primary-key column is required")
	}
	for _, c := range d.keyColumns {
		if c < 0 {
			return nil, fmt.Errorf("primary-key column must not be negative, got %d", c)
		}
	}
	d.keyColumns = normalizeColumns(d.keyColumns)

	return d, nil
}

// Diff compares the two inputs and returns the fully materialized result.
// The result is unsorted; see Result.SortByLine and Result.SortByColumns.
func (d *Differ) Diff(left, right Input) (*Result, error) {
	return d.DiffIter(left, right).Collect()
}

// DiffIter compares the two inputs and streams the differences as they
// are produced. Modify records arrive first, interleaved with the scan;
// Add and Delete records follow once both sides have been read
// completely. Within each phase the order is unspecified.
//
// The caller must either drain the iterator or Close it; an abandoned
// iterator that is neither drained nor closed leaks the pipeline's
// goroutines.
func (d *Differ) DiffIter(left, right Input) *Iterator {
	e := newEngine(d, left, right)
	it := &Iterator{
		out:    e.out,
		errc:   e.errc,
		closed: e.closed,
		// Safe to read once the stream is exhausted: the engine writes
		// the totals before closing out.
		totals: func() (uint64, uint64) {
			return e.totals.scanned[sideLeft], e.totals.scanned[sideRight]
		},
	}
	go e.run()
	return it
}

// normalizeColumns sorts the columns and removes duplicates, so key
// fields are always hashed in column order.
func normalizeColumns(columns []int) []int {
	out := make([]int, len(columns))
	copy(out, columns)
	sort.Ints(out)
	dedup := out[:1]
	for _, c := range out[1:] {
		if c != dedup[len(dedup)-1] {
			dedup = append(dedup, c)
		}
	}
	return dedup
}
