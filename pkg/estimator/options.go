package estimator

import (
	"runtime"

	"github.com/qcserestipy/gopi/pkg/accel"
	"github.com/qcserestipy/gopi/pkg/randsrc"
)

// DefaultRatio is the share of hybrid trials sent to the accelerator.
const DefaultRatio = 0.90

type Options struct {
	Workers   int
	Ratio     float64
	NewSource randsrc.Factory
	Device    accel.Device
	// Progress receives the number of trials just finished. It is called
	// from several workers at once.
	Progress  func(trials uint64)
}

type OptionFunc func(*Options)

func defaultOpts() Options {
	return Options{
		Workers:   runtime.NumCPU(),
		Ratio:     DefaultRatio,
		NewSource: randsrc.New,
		Progress:  func(uint64) {},
	}
}

func newOptions(opts []OptionFunc) Options {
	o := defaultOpts()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithWorkers sets the CPU worker count. Values below one keep the default.
func WithWorkers(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// WithRatio sets the accelerator share used by the hybrid method.
func WithRatio(r float64) OptionFunc {
	return func(o *Options) { o.Ratio = r }
}

// WithSource replaces the per-worker random stream factory.
func WithSource(f randsrc.Factory) OptionFunc {
	return func(o *Options) {
		if f != nil {
			o.NewSource = f
		}
	}
}

// WithDevice injects the accelerator used by the GPU and hybrid methods.
// Without it they run on a fresh simulated device.
func WithDevice(d accel.Device) OptionFunc {
	return func(o *Options) { o.Device = d }
}

// WithProgress registers a callback for completed trials.
func WithProgress(fn func(trials uint64)) OptionFunc {
	return func(o *Options) {
		if fn != nil {
			o.Progress = fn
		}
	}
}
