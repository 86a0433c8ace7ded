// Package driver orchestrates pipeline passes over whole modules.
package driver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"cinder/internal/ir"
	"cinder/internal/observ"
	"cinder/internal/types"
)

// Options configures an optimization run.
type Options struct {
	// Jobs caps the number of functions processed concurrently.
	// Zero or negative means GOMAXPROCS.
	Jobs int

	// Timer, when set, records a phase for the run.
	Timer *observ.Timer
}

// Optimize runs dead-code elimination over every function of the module
// and aggregates the removal counts.
//
// Functions are processed in parallel: each Func graph is exclusively
// owned by the goroutine processing it, and the type interner is only
// read. Within one function the pass stays sequential, since deletion
// cascades can touch arbitrary instructions through use-def edges.
func Optimize(ctx context.Context, m *ir.Module, typesIn *types.Interner, opts Options) (ir.Stats, error) {
	var stats ir.Stats
	if m == nil || len(m.Funcs) == 0 {
		return stats, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	phase := -1
	if opts.Timer != nil {
		phase = opts.Timer.Begin("deadcode")
	}

	// Per-function result slots; indices are unique per goroutine so no
	// mutex is needed.
	results := make([]ir.Stats, len(m.Funcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(m.Funcs)))

	for i, f := range m.Funcs {
		if f == nil {
			continue
		}
		i, f := i, f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = ir.EliminateFunc(f, typesIn)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}

	for _, r := range results {
		stats.Merge(r)
	}
	if opts.Timer != nil {
		opts.Timer.End(phase, fmt.Sprintf("funcs=%d blocks=-%d instrs=-%d",
			len(m.Funcs), stats.BlocksRemoved, stats.InstrsRemoved))
	}
	return stats, nil
}
