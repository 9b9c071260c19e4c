/*
	Package csvdiff computes the semantic difference between two CSV inputs

that share a primary key.

It compares records by identity rather than by position: each record is
keyed by one or more primary-key columns, so reordering rows between the
two inputs is not reported as a difference.

# Overview

csvdiff is a library for diffing CSV data that carries some sort of
primary key, such as two exports of the same database table taken from a
test and a production system. It is not a general line-by-line diffing
library.

Given a left and a right input, the diff contains three kinds of records:

  - Delete: the primary key exists only in the left input
  - Add: the primary key exists only in the right input
  - Modify: the primary key exists in both inputs, but at least one
    non-key column differs; the indices of the differing columns are
    reported

# Core Architecture

Both inputs are scanned concurrently. Each producer hashes every record
into a 128-bit key fingerprint and a 128-bit value fingerprint (xxh3) and
streams the fingerprints over a bounded channel to a single matcher. The
matcher keeps one keyed index per side, matches fingerprints as they
arrive, and resolves suspected modifications byte-exactly by seeking back
to the record's byte offset and re-reading it. Carrying fingerprints
instead of full records keeps each channel message at a fixed size of
under 100 bytes regardless of record width.

The bounded channel (10,000 records) doubles as the backpressure knob:
producers that race ahead of the matcher block until it catches up, and in
streaming mode a slow consumer transitively throttles the producers.

# Basic Usage

Comparing two CSV documents:

	differ, err := csvdiff.New()
	if err != nil {
	    log.Fatalf("Failed to create differ: %v", err)
	}

	result, err := differ.Diff(
	    csvdiff.FromBytes(leftData),
	    csvdiff.FromBytes(rightData),
	)
	if err != nil {
	    log.Fatalf("Diff failed: %v", err)
	}

	result.SortByLine()
	for _, rec := range result.Records() {
	    fmt.Println(rec)
	}

Streaming results as they are produced:

	it := differ.DiffIter(left, right)
	defer it.Close()
	for {
	    rec, ok := it.Next()
	    if !ok {
	        break
	    }
	    // Modify records arrive first, interleaved with the scan;
	    // Add and Delete records follow once both sides are drained.
	    process(rec)
	}
	if err := it.Err(); err != nil {
	    log.Fatalf("Diff failed: %v", err)
	}

# Inputs

Inputs must be seekable, because suspected modifications are re-read at
their byte offset. Three constructors are provided:

	csvdiff.FromBytes(data)          // in-memory bytes
	csvdiff.FromFile(fs, "dump.csv") // afero filesystem, nil means OS
	csvdiff.FromReader(r)            // buffers a non-seekable source

FromFile recognizes gzip, zstd and lz4 compressed files by their magic
bytes and transparently decompresses them into a seekable buffer.

Per-input options control the header row and the field delimiter:

	csvdiff.FromBytes(data, csvdiff.WithHeaders(false))
	csvdiff.FromFile(nil, "dump.tsv", csvdiff.WithDelimiter('\t'))

Both sides must use the same delimiter, the same header layout and the
same column count. Column identity is positional; reordered header
columns are not supported.

# Configuration Options

The differ is configured with options:

	differ, err := csvdiff.New(
	    csvdiff.WithPrimaryKeyColumns(0, 2),
	    csvdiff.WithTaskSpawner(&csvdiff.GroupSpawner{}),
	    csvdiff.WithLogger(logger),
	)

The primary key defaults to column 0. The task spawner chooses how the
two producers and the matcher are scheduled; see TaskSpawner.

# Correctness

Fingerprints are 128-bit, which pushes the birthday bound for collisions
to 2^64 records. Suspected modifications are additionally verified
byte-exactly, so a hash collision can never produce a false Modify; a
false equality would require simultaneous 128-bit collisions on both the
key and the value fingerprint.

A primary key that appears more than once within one input is not
detected: the later occurrence silently replaces the earlier one in the
index.

# Error Handling

The package defines sentinel errors for the failure classes:

  - ErrSchemaMismatch: the two sides disagree on column count, or a
    primary-key column is out of range; detected before scanning starts
  - ErrColumnOutOfRange: a sort column exceeds a record's width
  - ErrInternal: a producer or the matcher panicked

CSV parse errors and I/O errors abort the diff and are returned wrapped;
partial results are discarded.
*/
package csvdiff
