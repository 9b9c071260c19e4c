package csvdiff

import (
	"bytes"
	"fmt"

	"github.com/zeebo/xxh3"
)

// indexEntry is the per-key state held for an unmatched record. The side
// is implicit in which index holds the entry.
type indexEntry struct {
	value  xxh3.Uint128
	line   uint64
	offset uint64
}

// resolution is the outcome of a byte-exact check on a Modify candidate.
type resolution int

const (
	// resolvedModify: the records share their key bytes and differ in at
	// least one other column.
	resolvedModify resolution = iota
	// resolvedEqual: the records are byte-equal; the differing value
	// fingerprints were a hash collision.
	resolvedEqual
	// resolvedKeyCollision: the key fingerprints matched but the key
	// bytes differ; the records are unrelated.
	resolvedKeyCollision
)

// matcher is the single consumer of the hash channel. It owns both keyed
// indexes exclusively; no other task ever touches them.
type matcher struct {
	indexes    [2]map[xxh3.Uint128]indexEntry
	readers    [2]*seekReader
	keyColumns []int
	out        chan<- DiffRecord
	closed     <-chan struct{}
	totals     *sideTotals
}

// run drains the hash channel until both producers have signaled
// completion, then flushes the leftover index entries as Delete and Add
// records. On the first producer error it stops inserting but keeps
// draining, so the other producer never blocks on a full channel, and
// surfaces that error with partial results discarded.
func (m *matcher) run(msgs <-chan scanMessage) error {
	var firstErr error
	done := 0
	for done < 2 {
		var msg scanMessage
		select {
		case msg = <-msgs:
		case <-m.closed:
			return errAbandoned
		}

		switch {
		case msg.err != nil:
			if firstErr == nil {
				firstErr = msg.err
			}
			done++
		case msg.done:
			m.totals.scanned[msg.side] = msg.total
			done++
		case firstErr == nil:
			if err := m.process(msg); err != nil {
				return err
			}
		}
	}
	if firstErr != nil {
		return firstErr
	}
	return m.drain()
}

// process matches one arriving record against the opposite side's index.
func (m *matcher) process(msg scanMessage) error {
	s := msg.side
	opposite := m.indexes[s.opposite()]

	entry, ok := opposite[msg.rec.key]
	if !ok {
		// Not seen on the other side yet. A duplicate key within one
		// side overwrites the earlier entry here (last wins).
		m.indexes[s][msg.rec.key] = indexEntry{
			value:  msg.rec.value,
			line:   msg.rec.line,
			offset: msg.rec.offset,
		}
		return nil
	}

	delete(opposite, msg.rec.key)
	own := indexEntry{value: msg.rec.value, line: msg.rec.line, offset: msg.rec.offset}
	if entry.value == own.value {
		// Matching key and value fingerprints: the records are equal.
		return nil
	}

	var left, right indexEntry
	if s == sideLeft {
		left, right = own, entry
	} else {
		left, right = entry, own
	}

	rec, res, err := m.resolve(left, right)
	if err != nil {
		return err
	}
	switch res {
	case resolvedModify:
		return m.emit(rec)
	case resolvedKeyCollision:
		// The records only looked related. Put both back so the drain
		// reports them as an independent Delete and Add.
		m.indexes[sideLeft][msg.rec.key] = left
		m.indexes[sideRight][msg.rec.key] = right
	}
	return nil
}

// resolve re-reads both records at their byte offsets and compares them
// column by column, eliminating fingerprint collisions at the record
// level.
func (m *matcher) resolve(left, right indexEntry) (DiffRecord, resolution, error) {
	leftFields, err := m.readers[sideLeft].recordAt(left.offset)
	if err != nil {
		return DiffRecord{}, 0, fmt.Errorf("left input: %w", err)
	}
	rightFields, err := m.readers[sideRight].recordAt(right.offset)
	if err != nil {
		return DiffRecord{}, 0, fmt.Errorf("right input: %w", err)
	}

	for _, c := range m.keyColumns {
		if !bytes.Equal(fieldAt(leftFields, c), fieldAt(rightFields, c)) {
			return DiffRecord{}, resolvedKeyCollision, nil
		}
	}

	width := len(leftFields)
	if len(rightFields) > width {
		width = len(rightFields)
	}
	var fieldIndices []int
	for i := 0; i < width; i++ {
		if !bytes.Equal(fieldAt(leftFields, i), fieldAt(rightFields, i)) {
			fieldIndices = append(fieldIndices, i)
		}
	}
	if len(fieldIndices) == 0 {
		return DiffRecord{}, resolvedEqual, nil
	}

	rec := DiffRecord{
		Kind:         KindModify,
		Delete:       &RecordLine{Fields: leftFields, Line: left.line},
		Add:          &RecordLine{Fields: rightFields, Line: right.line},
		FieldIndices: fieldIndices,
	}
	return rec, resolvedModify, nil
}

// drain flushes everything left unmatched: left-side entries become
// Delete records, right-side entries become Add records. Each needs one
// more seek to recover the original record bytes.
func (m *matcher) drain() error {
	for _, entry := range m.indexes[sideLeft] {
		fields, err := m.readers[sideLeft].recordAt(entry.offset)
		if err != nil {
			return fmt.Errorf("left input: %w", err)
		}
		rec := DiffRecord{
			Kind:   KindDelete,
			Delete: &RecordLine{Fields: fields, Line: entry.line},
		}
		if err := m.emit(rec); err != nil {
			return err
		}
	}
	for _, entry := range m.indexes[sideRight] {
		fields, err := m.readers[sideRight].recordAt(entry.offset)
		if err != nil {
			return fmt.Errorf("right input: %w", err)
		}
		rec := DiffRecord{
			Kind: KindAdd,
			Add:  &RecordLine{Fields: fields, Line: entry.line},
		}
		if err := m.emit(rec); err != nil {
			return err
		}
	}
	return nil
}

// emit hands a record to the consumer, or reports abandonment when the
// consumer dropped the iterator.
func (m *matcher) emit(rec DiffRecord) error {
	select {
	case m.out <- rec:
		return nil
	case <-m.closed:
		return errAbandoned
	}
}

func fieldAt(fields [][]byte, i int) []byte {
	if i < 0 || i >= len(fields) {
		return nil
	}
	return fields[i]
}
