package estimator

import (
	"context"
	"fmt"
	"math"

	"github.com/qcserestipy/gopi/pkg/randsrc"
)

// NeedleLength is the needle length relative to the line spacing.
const NeedleLength = 0.9

// Buffon drops needles on ruled lines. A needle crosses with probability
// L/(2π), so π ≈ L·trials/(2·hits).
type Buffon struct {
	opts Options
}

func NewBuffon(opts ...OptionFunc) *Buffon {
	return &Buffon{opts: newOptions(opts)}
}

func (e *Buffon) ID() string { return "[Buffon's Needle]" }

func (e *Buffon) Approximate(ctx context.Context, trials uint64) (float64, error) {
	if trials == 0 {
		return 0, ErrInvalidTrialCount
	}
	hits, err := countHits(ctx, e.opts, e.ID(), trials, needleHits)
	if err != nil {
		return 0, err
	}
	if hits == 0 {
		return 0, fmt.Errorf("%s after %d trials: %w", e.ID(), trials, ErrZeroHits)
	}
	return NeedleLength * float64(trials) / (2.0 * float64(hits)), nil
}

func needleHits(src randsrc.Source, n uint64) uint64 {
	var hits uint64
	for i := uint64(0); i < n; i++ {
		angle := src.Float64() * 2 * math.Pi
		x := src.Float64()
		y := NeedleLength / 2 * math.Sin(angle)
		if x <= y {
			hits++
		}
	}
	return hits
}
