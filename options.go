package csvdiff

import (
	"go.uber.org/zap"
)

// Option defines a function that configures a Differ.
type Option func(*Differ)

// WithPrimaryKeyColumns sets the columns whose concatenation identifies a
// record. Columns are deduplicated and hashed in column order. The
// default is column 0.
//
// Example:
//
//	differ, err := csvdiff.New(csvdiff.WithPrimaryKeyColumns(0, 2))
func WithPrimaryKeyColumns(columns ...int) Option {
	return func(d *Differ) {
		d.keyColumns = columns
	}
}

// WithTaskSpawner sets the spawner that schedules the two producers and
// the matcher. The default is GoroutineSpawner. Use GroupSpawner to run
// the tasks on an errgroup, optionally with a concurrency limit.
func WithTaskSpawner(ts TaskSpawner) Option {
	return func(d *Differ) {
		d.spawner = ts
	}
}

// WithLogger sets the logger used for debug-level progress reporting.
// The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Differ) {
		d.logger = logger
	}
}
