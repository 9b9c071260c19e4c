package csvdiff

import (
	"sync"
)

// Iterator streams DiffRecords as the matcher produces them. Each Next
// call pulls at most one record; a caller that stops pulling transitively
// blocks the matcher and, through the bounded hash channel, the
// producers.
//
// An Iterator is not safe for concurrent use.
type Iterator struct {
	out    <-chan DiffRecord
	errc   <-chan error
	closed chan struct{}

	closeOnce sync.Once
	totals    func() (uint64, uint64)
	err       error
	done      bool
}

// Next returns the next difference. It reports false once the stream is
// exhausted or failed; after that, Err tells the two cases apart.
func (it *Iterator) Next() (DiffRecord, bool) {
	if it.done {
		return DiffRecord{}, false
	}
	for {
		rec, ok := <-it.out
		if !ok {
			it.done = true
			it.err = <-it.errc
			return DiffRecord{}, false
		}
		select {
		case <-it.closed:
			// Closed: discard records still in flight until the
			// engine closes its output.
			continue
		default:
		}
		return rec, true
	}
}

// Err returns the error that terminated the stream, if any. It is only
// meaningful after Next has reported false.
func (it *Iterator) Err() error {
	return it.err
}

// Close abandons the stream. The producers and the matcher observe the
// cancellation and exit; no further records are delivered. Close is safe
// to call more than once and after the stream is exhausted.
func (it *Iterator) Close() {
	it.closeOnce.Do(func() {
		close(it.closed)
	})
}

// Collect drains the iterator into a materialized Result. On error the
// partial results are discarded and the error returned.
func (it *Iterator) Collect() (*Result, error) {
	res := &Result{}
	for {
		rec, ok := it.Next()
		if !ok {
			break
		}
		res.append(rec)
	}
	if it.err != nil {
		return nil, it.err
	}
	if it.totals != nil {
		res.leftTotal, res.rightTotal = it.totals()
	}
	return res, nil
}
