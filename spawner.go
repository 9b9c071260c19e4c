package csvdiff

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// TaskSpawner runs a set of tasks to completion. Spawn must not return
// before every task has returned; the diff engine relies on this scoped
// lifetime to share readers and channel endpoints across the tasks
// without further synchronization. Spawn returns the first task error.
//
// A diff schedules three tasks: two producers and one matcher. The tasks
// block on each other through a bounded channel, so they must be able to
// run concurrently.
type TaskSpawner interface {
	Spawn(tasks ...func() error) error
}

// GoroutineSpawner runs every task on its own goroutine and joins them
// with a WaitGroup. This is the default spawner.
type GoroutineSpawner struct{}

// Spawn implements TaskSpawner.
func (GoroutineSpawner) Spawn(tasks ...func() error) error {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		firstEr error
	)
	wg.Add(len(tasks))
	for _, task := range tasks {
		go func() {
			defer wg.Done()
			if err := task(); err != nil {
				mu.Lock()
				if firstEr == nil {
					firstEr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return firstEr
}

// GroupSpawner runs tasks on an errgroup.Group that Spawn creates for the
// call, optionally bounding the number of tasks that group runs at once.
// A Limit of 0 means no limit. The group and its limit are local to one
// Spawn call; they are not shared with any other work.
//
// The diff tasks block on each other, so a limit below the task count
// would deadlock; Spawn raises such limits to the task count.
type GroupSpawner struct {
	Limit int
}

// Spawn implements TaskSpawner.
func (gs *GroupSpawner) Spawn(tasks ...func() error) error {
	var g errgroup.Group
	if gs.Limit > 0 {
		limit := gs.Limit
		if limit < len(tasks) {
			limit = len(tasks)
		}
		g.SetLimit(limit)
	}
	for _, task := range tasks {
		g.Go(task)
	}
	return g.Wait()
}
