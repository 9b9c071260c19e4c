package csvdiff

import (
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
)

// channelCapacity bounds the number of in-flight hashed records between
// the producers and the matcher. Each slot holds an 88-byte scanMessage on
// 64-bit platforms, so the buffer tops out around 880KB while still
// letting the producers run well ahead of the matcher.
const channelCapacity = 10_000

// errAbandoned signals that the consumer dropped the iterator; it never
// escapes the engine.
var errAbandoned = errors.New("diff abandoned by consumer")

// side identifies which input a record came from.
type side int

const (
	sideLeft side = iota
	sideRight
)

// String implements fmt.Stringer.
func (s side) String() string {
	if s == sideLeft {
		return "left"
	}
	return "right"
}

func (s side) opposite() side {
	return 1 - s
}

// hashedRecord is the channel payload: two 128-bit fingerprints plus the
// record's position, enough to match records and to find their bytes
// again later.
type hashedRecord struct {
	key    xxh3.Uint128
	value  xxh3.Uint128
	line   uint64
	offset uint64
}

// scanMessage is what producers send to the matcher. Exactly one of the
// three shapes is populated: a hashed record, a done marker carrying the
// side's record total, or a terminal error.
type scanMessage struct {
	side  side
	rec   hashedRecord
	done  bool
	total uint64
	err   error
}

// sideTotals carries the per-side record counts out of the matcher. It is
// written before the engine closes its output channel and read only
// after, so no locking is needed.
type sideTotals struct {
	scanned [2]uint64
}

// engine wires one diff run together: two producers scanning and hashing
// their side, one matcher draining the shared channel. The spawner joins
// all three before engine.diff returns.
type engine struct {
	left, right Input
	keyColumns  []int
	spawner     TaskSpawner
	logger      *zap.Logger

	msgs   chan scanMessage
	out    chan DiffRecord
	errc   chan error
	closed chan struct{}
	totals sideTotals
}

func newEngine(d *Differ, left, right Input) *engine {
	return &engine{
		left:       left,
		right:      right,
		keyColumns: d.keyColumns,
		spawner:    d.spawner,
		logger:     d.logger,
		msgs:       make(chan scanMessage, channelCapacity),
		out:        make(chan DiffRecord),
		errc:       make(chan error, 1),
		closed:     make(chan struct{}),
	}
}

// run executes the diff and delivers the terminal error before closing
// the output channel, so the iterator always observes the error when it
// sees the closed channel.
func (e *engine) run() {
	err := e.diff()
	if errors.Is(err, errAbandoned) {
		err = nil
	}
	e.errc <- err
	close(e.out)
}

func (e *engine) diff() error {
	if err := e.validateSchema(); err != nil {
		return err
	}

	leftSeek, err := e.openSeekReader(&e.left)
	if err != nil {
		return err
	}
	defer leftSeek.close()
	rightSeek, err := e.openSeekReader(&e.right)
	if err != nil {
		return err
	}
	defer rightSeek.close()

	m := &matcher{
		indexes:    [2]map[xxh3.Uint128]indexEntry{{}, {}},
		readers:    [2]*seekReader{leftSeek, rightSeek},
		keyColumns: e.keyColumns,
		out:        e.out,
		closed:     e.closed,
		totals:     &e.totals,
	}

	err = e.spawner.Spawn(
		e.producerTask(&e.left, sideLeft),
		e.producerTask(&e.right, sideRight),
		e.matcherTask(m),
	)
	if err == nil {
		e.logger.Debug("diff complete",
			zap.Uint64("left_records", e.totals.scanned[sideLeft]),
			zap.Uint64("right_records", e.totals.scanned[sideRight]))
	}
	return err
}

// validateSchema peeks the first record of both inputs and rejects the
// diff before any producer starts when the sides disagree on width or a
// primary-key column cannot exist. Violations are accumulated so the
// caller sees all of them at once.
func (e *engine) validateSchema() error {
	leftWidth, leftOk, err := e.left.peekWidth()
	if err != nil {
		return fmt.Errorf("left input: %w", err)
	}
	rightWidth, rightOk, err := e.right.peekWidth()
	if err != nil {
		return fmt.Errorf("right input: %w", err)
	}

	var errs []error
	if leftOk && rightOk && leftWidth != rightWidth {
		errs = append(errs, fmt.Errorf("left input has %d columns, right input has %d", leftWidth, rightWidth))
	}
	maxKey := e.keyColumns[len(e.keyColumns)-1]
	if leftOk && maxKey >= leftWidth {
		errs = append(errs, fmt.Errorf("primary-key column %d out of range for left input with %d columns", maxKey, leftWidth))
	}
	if rightOk && maxKey >= rightWidth {
		errs = append(errs, fmt.Errorf("primary-key column %d out of range for right input with %d columns", maxKey, rightWidth))
	}
	return newSchemaError(errs)
}

func (e *engine) openSeekReader(in *Input) (*seekReader, error) {
	rs, err := in.open()
	if err != nil {
		return nil, err
	}
	return &seekReader{rs: rs, comma: in.comma}, nil
}

// producerTask scans one input sequentially, hashes every record and
// sends the fingerprints to the matcher. Panics are converted into a
// terminal error message so a broken producer cannot hang the pipeline.
func (e *engine) producerTask(in *Input, s side) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				e.send(scanMessage{side: s, err: fmt.Errorf("%w: producer panicked: %v", ErrInternal, r)})
			}
		}()
		e.scan(in, s)
		return nil
	}
}

func (e *engine) scan(in *Input, s side) {
	rs, err := in.open()
	if err != nil {
		e.send(scanMessage{side: s, err: err})
		return
	}
	defer closeIfCloser(rs)

	r := in.newScanReader(rs)
	if in.headers {
		if _, err := r.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				e.send(scanMessage{side: s, done: true})
				return
			}
			e.send(scanMessage{side: s, err: fmt.Errorf("%s input: %w", s, err)})
			return
		}
	}

	hasher := newFieldsHasher(e.keyColumns)
	var total uint64
	for {
		offset := uint64(r.InputOffset())
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			e.send(scanMessage{side: s, err: fmt.Errorf("%s input: %w", s, err)})
			return
		}
		line, _ := r.FieldPos(0)
		key, value := hasher.hashRecord(fields)
		msg := scanMessage{
			side: s,
			rec: hashedRecord{
				key:    key,
				value:  value,
				line:   uint64(line),
				offset: offset,
			},
		}
		if !e.send(msg) {
			return
		}
		total++
	}

	e.logger.Debug("scan complete", zap.Stringer("side", s), zap.Uint64("records", total))
	e.send(scanMessage{side: s, done: true, total: total})
}

// send delivers a message to the matcher, or reports false when the
// consumer has abandoned the diff.
func (e *engine) send(msg scanMessage) bool {
	select {
	case e.msgs <- msg:
		return true
	case <-e.closed:
		return false
	}
}

func (e *engine) matcherTask(m *matcher) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: matcher panicked: %v", ErrInternal, r)
			}
		}()
		return m.run(e.msgs)
	}
}
