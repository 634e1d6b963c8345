package estimator

import (
	"context"

	"github.com/qcserestipy/gopi/pkg/randsrc"
)

// Darts throws uniform points into the unit square on the CPU and counts
// those inside the quarter circle.
type Darts struct {
	opts Options
}

func NewDarts(opts ...OptionFunc) *Darts {
	return &Darts{opts: newOptions(opts)}
}

func (e *Darts) ID() string { return "[CPU Darts]" }

func (e *Darts) Approximate(ctx context.Context, trials uint64) (float64, error) {
	if trials == 0 {
		return 0, ErrInvalidTrialCount
	}
	hits, err := e.hits(ctx, trials)
	if err != nil {
		return 0, err
	}
	return 4.0 * float64(hits) / float64(trials), nil
}

func (e *Darts) hits(ctx context.Context, trials uint64) (uint64, error) {
	return countHits(ctx, e.opts, e.ID(), trials, dartHits)
}

func dartHits(src randsrc.Source, n uint64) uint64 {
	var hits uint64
	for i := uint64(0); i < n; i++ {
		x, y := src.Float64(), src.Float64()
		if x*x+y*y <= 1.0 {
			hits++
		}
	}
	return hits
}
