package audit

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// maxWorkers bounds the default pool; installs are subprocess-heavy and
// the index rate-limits aggressive clients.
const maxWorkers = 32

// DefaultWorkers returns min(32, GOMAXPROCS).
func DefaultWorkers() int {
	return min(maxWorkers, runtime.GOMAXPROCS(0))
}

// forEach calls fn(ctx, i) for every i in [0, n) with at most workers
// calls in flight. Each call owns index i; callers write results into a
// pre-sized slice at that index, so no locking is needed. Once ctx is
// cancelled no new calls are started. forEach returns ctx.Err().
func forEach(ctx context.Context, n, workers int, fn func(ctx context.Context, i int)) error {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	g := new(errgroup.Group)
	g.SetLimit(min(workers, max(n, 1)))
	for i := range n {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}
