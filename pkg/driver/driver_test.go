package driver

import (
	"context"
	"errors"
	"math"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/qcserestipy/gopi/pkg/accel"
	"github.com/qcserestipy/gopi/pkg/estimator"
)

func TestParseTrialCount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected uint64
		overflow bool
		invalid  bool
	}{
		{name: "default", input: "1000", expected: 1000},
		{name: "max", input: "18446744073709551615", expected: math.MaxUint64},
		{name: "one past max", input: "18446744073709551616", overflow: true},
		{name: "far past max", input: "99999999999999999999999", overflow: true},
		{name: "negative", input: "-5", invalid: true},
		{name: "garbage", input: "lots", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTrialCount(tt.input)
			switch {
			case tt.overflow:
				if !errors.Is(err, ErrTrialCountOverflow) {
					t.Fatalf("expected ErrTrialCountOverflow, got %v", err)
				}
			case tt.invalid:
				if err == nil || errors.Is(err, ErrTrialCountOverflow) {
					t.Fatalf("expected a parse error, got %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.expected {
					t.Fatalf("expected %d, got %d", tt.expected, got)
				}
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Trials != 1000 || cfg.Method != estimator.MethodIntegral || cfg.GPURatio != 0.90 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestRunInvalidMethodComputesNothing(t *testing.T) {
	var progressed atomic.Uint64
	cfg := DefaultConfig()
	cfg.Method = 6
	cfg.Progress = func(n uint64) { progressed.Add(n) }

	report, err := Run(context.Background(), cfg)
	if !errors.Is(err, estimator.ErrInvalidMethodSelector) {
		t.Fatalf("expected ErrInvalidMethodSelector, got %v", err)
	}
	if report != (Report{}) {
		t.Fatalf("expected an empty report, got %+v", report)
	}
	if progressed.Load() != 0 {
		t.Fatalf("expected no trials to run, got %d", progressed.Load())
	}
}

func TestRunRejectsBeforeDispatch(t *testing.T) {
	zero := DefaultConfig()
	zero.Trials = 0
	if _, err := Run(context.Background(), zero); !errors.Is(err, estimator.ErrInvalidTrialCount) {
		t.Fatalf("expected ErrInvalidTrialCount, got %v", err)
	}

	ratio := DefaultConfig()
	ratio.Method = estimator.MethodHybrid
	ratio.GPURatio = 1.2
	if _, err := Run(context.Background(), ratio); !errors.Is(err, estimator.ErrInvalidRatio) {
		t.Fatalf("expected ErrInvalidRatio, got %v", err)
	}
}

func TestRunIntegral(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 2

	report, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ID != "[Integral]" {
		t.Fatalf("expected [Integral], got %q", report.ID)
	}
	if report.AbsError > 1e-6 {
		t.Fatalf("expected error below 1e-6, got %g", report.AbsError)
	}
	if report.AbsError != math.Abs(estimator.ReferencePi-report.Approximation) {
		t.Fatalf("error %g does not match approximation %v", report.AbsError, report.Approximation)
	}
	if !strings.HasPrefix(report.String(), "Pi approximation: 3.14159") {
		t.Fatalf("unexpected report line %q", report.String())
	}
}

func TestRunHybrid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = estimator.MethodHybrid
	cfg.GPURatio = 0.5
	cfg.Trials = 200_000
	cfg.Lanes = 32

	report, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ID != "[CPU+GPU Darts @ r=0.5]" {
		t.Fatalf("unexpected ID %q", report.ID)
	}
	if report.Approximation < 3.0 || report.Approximation > 3.3 {
		t.Fatalf("expected an estimate near π, got %v", report.Approximation)
	}
}

func TestRunAcceleratorUnavailable(t *testing.T) {
	for _, m := range []estimator.Method{estimator.MethodAccelerated, estimator.MethodHybrid} {
		cfg := DefaultConfig()
		cfg.Method = m
		cfg.Device = "none"

		report, err := Run(context.Background(), cfg)
		if !errors.Is(err, accel.ErrUnavailable) {
			t.Fatalf("%s: expected ErrUnavailable, got %v", m, err)
		}
		if report.Approximation != 0 {
			t.Fatalf("%s: expected no approximation, got %v", m, report.Approximation)
		}
	}
}

func TestRunBuffonZeroHitsSurfaced(t *testing.T) {
	// a single needle misses often enough that repeated runs must hit
	// ErrZeroHits at least once without ever producing Inf
	cfg := DefaultConfig()
	cfg.Method = estimator.MethodBuffon
	cfg.Trials = 1
	cfg.Workers = 1

	sawZero := false
	for i := 0; i < 200; i++ {
		report, err := Run(context.Background(), cfg)
		if errors.Is(err, estimator.ErrZeroHits) {
			sawZero = true
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.IsInf(report.Approximation, 0) || math.IsNaN(report.Approximation) {
			t.Fatalf("expected a finite approximation, got %v", report.Approximation)
		}
	}
	if !sawZero {
		t.Fatal("expected at least one zero-hit run out of 200 single needle drops")
	}
}

func TestRunReportsEffectiveWorkers(t *testing.T) {
	for _, workers := range []int{0, -3} {
		cfg := DefaultConfig()
		cfg.Workers = workers

		report, err := Run(context.Background(), cfg)
		if err != nil {
			t.Fatalf("workers=%d: unexpected error: %v", workers, err)
		}
		if report.Workers != runtime.NumCPU() {
			t.Fatalf("workers=%d: expected report to show %d workers, got %d",
				workers, runtime.NumCPU(), report.Workers)
		}
	}
}

// closingDevice records whether it was released.
type closingDevice struct {
	accel.Unavailable
	closed bool
}

func (d *closingDevice) Close() error {
	d.closed = true
	return nil
}

func TestBuildClosesDeviceOnEstimatorError(t *testing.T) {
	dev := &closingDevice{}
	orig := openDevice
	openDevice = func(string, ...accel.Option) (accel.Device, error) { return dev, nil }
	defer func() { openDevice = orig }()

	cfg := DefaultConfig()
	cfg.Method = estimator.MethodHybrid
	cfg.GPURatio = math.NaN()

	if _, err := build(cfg); !errors.Is(err, estimator.ErrInvalidRatio) {
		t.Fatalf("expected ErrInvalidRatio, got %v", err)
	}
	if !dev.closed {
		t.Fatal("expected the opened device to be closed")
	}
}

func TestValidateRejectsNaNRatio(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = estimator.MethodHybrid
	cfg.GPURatio = math.NaN()
	if err := cfg.Validate(); !errors.Is(err, estimator.ErrInvalidRatio) {
		t.Fatalf("expected ErrInvalidRatio, got %v", err)
	}
}
