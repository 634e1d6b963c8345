package estimator

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Hybrid splits the dart budget between the accelerator and the CPU pool,
// runs both halves at the same time and merges their hit counts.
type Hybrid struct {
	ratio float64
	cpu   *Darts
	gpu   *Accelerated
}

// NewHybrid builds a hybrid estimator sending ratio of the trials to the
// accelerator. ratio must lie in (0, 1).
func NewHybrid(ratio float64, opts ...OptionFunc) (*Hybrid, error) {
	if math.IsNaN(ratio) || ratio <= 0 || ratio >= 1 {
		return nil, fmt.Errorf("ratio %v: %w", ratio, ErrInvalidRatio)
	}
	return &Hybrid{
		ratio: ratio,
		cpu:   NewDarts(opts...),
		gpu:   NewAccelerated(opts...),
	}, nil
}

func (e *Hybrid) ID() string {
	return "[CPU+GPU Darts @ r=" + strconv.FormatFloat(e.ratio, 'f', -1, 64) + "]"
}

// Ratio returns the configured accelerator share.
func (e *Hybrid) Ratio() float64 { return e.ratio }

// Split partitions trials into an accelerator share round(trials·ratio)
// and a CPU share holding the rest. gpu+cpu == trials always.
func Split(trials uint64, ratio float64) (gpu, cpu uint64) {
	share := math.Round(float64(trials) * ratio)
	switch {
	case share <= 0:
		gpu = 0
	case share >= float64(trials):
		gpu = trials
	default:
		gpu = uint64(share)
	}
	return gpu, trials - gpu
}

func (e *Hybrid) Approximate(ctx context.Context, trials uint64) (float64, error) {
	if trials == 0 {
		return 0, ErrInvalidTrialCount
	}

	gpuTrials, cpuTrials := Split(trials, e.ratio)
	logrus.WithFields(logrus.Fields{
		"ratio":      e.ratio,
		"gpu_trials": gpuTrials,
		"cpu_trials": cpuTrials,
	}).Debug("Hybrid split prepared")

	var gpuHits, cpuHits uint64
	g, gctx := errgroup.WithContext(ctx)
	// the device is asked even for an empty share so an unavailable
	// accelerator cannot degrade the run to CPU only
	g.Go(func() error {
		var err error
		gpuHits, err = e.gpu.hits(gctx, gpuTrials)
		return err
	})
	if cpuTrials > 0 {
		g.Go(func() error {
			var err error
			cpuHits, err = e.cpu.hits(gctx, cpuTrials)
			return err
		})
	}
	// a device failure fails the whole run; the CPU share is not rescaled
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("%s: %w", e.ID(), err)
	}

	return 4.0 * float64(gpuHits+cpuHits) / float64(trials), nil
}

// Close releases the accelerator device.
func (e *Hybrid) Close() error {
	return e.gpu.Close()
}
