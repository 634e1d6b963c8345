// Package driver runs one estimation end to end: it validates the run
// configuration, builds the selected estimator, times a single Approximate
// call and reports the result against the reference constant.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"time"

	"github.com/qcserestipy/gopi/pkg/accel"
	"github.com/qcserestipy/gopi/pkg/estimator"
	"github.com/sirupsen/logrus"
)

// DefaultTrials is the trial count used when none is given.
const DefaultTrials = 1000

// ErrTrialCountOverflow is returned for trial counts beyond uint64.
var ErrTrialCountOverflow = errors.New("trial count exceeds the representable range")

// Config describes one run. Workers is fixed for the lifetime of the run and
// handed to the estimator rather than set process-wide.
type Config struct {
	Trials   uint64
	Method   estimator.Method
	Workers  int
	GPURatio float64
	// Device names the accelerator, see accel.Open.
	Device   string
	// Lanes overrides the lane count of a simulated device.
	Lanes    int
	Progress func(trials uint64)
}

func DefaultConfig() Config {
	return Config{
		Trials:   DefaultTrials,
		Method:   estimator.MethodIntegral,
		Workers:  runtime.NumCPU(),
		GPURatio: estimator.DefaultRatio,
		Device:   "sim",
	}
}

// normalize fills the fields an estimator would otherwise default on its
// own, so the report shows what actually ran.
func (c Config) normalize() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Device == "" {
		c.Device = "sim"
	}
	return c
}

// Validate reports configuration errors that must stop a run before any
// work is dispatched.
func (c Config) Validate() error {
	if !c.Method.Valid() {
		return fmt.Errorf("method %d: %w", int(c.Method), estimator.ErrInvalidMethodSelector)
	}
	if c.Trials == 0 {
		return estimator.ErrInvalidTrialCount
	}
	if c.Method == estimator.MethodHybrid && !(c.GPURatio > 0 && c.GPURatio < 1) {
		return fmt.Errorf("ratio %v: %w", c.GPURatio, estimator.ErrInvalidRatio)
	}
	return nil
}

// ParseTrialCount parses a decimal trial count, reporting values that do not
// fit in 64 bits as ErrTrialCountOverflow.
func ParseTrialCount(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%s: %w", s, ErrTrialCountOverflow)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid trial count %q: %w", s, err)
	}
	return n, nil
}

// Report is the outcome of one run.
type Report struct {
	ID            string        `json:"id"`
	Trials        uint64        `json:"trials"`
	Workers       int           `json:"workers"`
	Approximation float64       `json:"approximation"`
	AbsError      float64       `json:"abs_error"`
	Elapsed       time.Duration `json:"elapsed_ns"`
}

// Seconds returns the elapsed wall time in seconds.
func (r Report) Seconds() float64 {
	return r.Elapsed.Seconds()
}

func (r Report) String() string {
	return fmt.Sprintf("Pi approximation: %.15g with error %.6g in %.6f seconds.",
		r.Approximation, r.AbsError, r.Seconds())
}

// Run executes cfg once. Configuration errors are returned before any
// estimator is built; computational errors come back with a Report holding
// the method ID and the time spent.
func Run(ctx context.Context, cfg Config) (Report, error) {
	cfg = cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	est, err := build(cfg)
	if err != nil {
		return Report{}, err
	}
	if c, ok := est.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				logrus.Warnf("Releasing %s failed: %v", est.ID(), err)
			}
		}()
	}

	logrus.WithFields(logrus.Fields{
		"trials":  cfg.Trials,
		"workers": cfg.Workers,
	}).Infof("Using Method: %s", est.ID())

	start := time.Now()
	approx, err := est.Approximate(ctx, cfg.Trials)
	elapsed := time.Since(start)

	report := Report{
		ID:      est.ID(),
		Trials:  cfg.Trials,
		Workers: cfg.Workers,
		Elapsed: elapsed,
	}
	if err != nil {
		return report, err
	}
	report.Approximation = approx
	report.AbsError = estimator.AbsError(approx)

	logrus.WithFields(logrus.Fields{
		"pi_approximation": report.Approximation,
		"error":            report.AbsError,
		"duration":         elapsed,
		"trials_per_sec":   float64(cfg.Trials) / elapsed.Seconds(),
	}).Debug("Computation completed")

	return report, nil
}

var openDevice = accel.Open

func build(cfg Config) (estimator.Estimator, error) {
	opts := []estimator.OptionFunc{
		estimator.WithWorkers(cfg.Workers),
		estimator.WithRatio(cfg.GPURatio),
		estimator.WithProgress(cfg.Progress),
	}
	if cfg.Method == estimator.MethodAccelerated || cfg.Method == estimator.MethodHybrid {
		dev, err := openDevice(cfg.Device, accel.WithLanes(cfg.Lanes))
		if err != nil {
			return nil, err
		}
		est, err := estimator.New(cfg.Method, append(opts, estimator.WithDevice(dev))...)
		if err != nil {
			if cerr := dev.Close(); cerr != nil {
				logrus.Warnf("Releasing %s failed: %v", dev.Name(), cerr)
			}
			return nil, err
		}
		return est, nil
	}
	return estimator.New(cfg.Method, opts...)
}
