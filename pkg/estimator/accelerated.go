package estimator

import (
	"context"
	"fmt"

	"github.com/qcserestipy/gopi/pkg/accel"
)

// Accelerated hands the whole dart budget to an accelerator device.
type Accelerated struct {
	opts   Options
	device accel.Device
}

func NewAccelerated(opts ...OptionFunc) *Accelerated {
	o := newOptions(opts)
	dev := o.Device
	if dev == nil {
		dev = accel.NewSimulated(accel.WithSource(o.NewSource))
	}
	return &Accelerated{opts: o, device: dev}
}

func (e *Accelerated) ID() string { return "[GPU Darts]" }

func (e *Accelerated) Approximate(ctx context.Context, trials uint64) (float64, error) {
	if trials == 0 {
		return 0, ErrInvalidTrialCount
	}
	hits, err := e.hits(ctx, trials)
	if err != nil {
		return 0, err
	}
	return 4.0 * float64(hits) / float64(trials), nil
}

// Close releases the device.
func (e *Accelerated) Close() error {
	return e.device.Close()
}

func (e *Accelerated) hits(ctx context.Context, trials uint64) (uint64, error) {
	hits, err := e.device.EvaluateTrials(ctx, trials)
	if err != nil {
		return 0, fmt.Errorf("%s on %s: %w", e.ID(), e.device.Name(), err)
	}
	if hits > trials {
		return 0, fmt.Errorf("%s on %s: device reported %d hits for %d trials: %w",
			e.ID(), e.device.Name(), hits, trials, accel.ErrUnavailable)
	}
	e.opts.Progress(trials)
	return hits, nil
}
