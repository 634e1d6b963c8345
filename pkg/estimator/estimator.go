// Package estimator implements the interchangeable π estimation methods.
//
// Every method satisfies Estimator. The stochastic methods fan their trial
// budget out over a fixed pool of workers, one contiguous range each; every
// worker draws from its own freshly seeded random stream and keeps its hit
// count private until the pool joins, where the counts are summed.
package estimator

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ReferencePi is the constant approximations are compared against.
const ReferencePi = 3.14159265358979323846

var (
	// ErrInvalidTrialCount is returned for a zero trial budget.
	ErrInvalidTrialCount = errors.New("trial count must be positive")
	// ErrZeroHits is returned when a ratio based estimate saw no hits.
	ErrZeroHits = errors.New("no hits observed, estimate undefined")
	// ErrInvalidRatio is returned for a hybrid GPU ratio outside (0, 1).
	ErrInvalidRatio = errors.New("gpu ratio must lie strictly between 0 and 1")
	// ErrInvalidMethodSelector is returned for an unknown method code.
	ErrInvalidMethodSelector = errors.New("invalid method selector")
)

// Estimator approximates π from a trial budget.
type Estimator interface {
	// Approximate runs trials trials (or integration subintervals) and
	// returns the estimate. It never returns NaN or ±Inf: degenerate
	// inputs and outcomes are reported as errors.
	Approximate(ctx context.Context, trials uint64) (float64, error)
	// ID is a stable label naming the method and its configuration.
	ID() string
}

// AbsError returns |ReferencePi - approx|.
func AbsError(approx float64) float64 {
	return math.Abs(ReferencePi - approx)
}

// Method selects an estimation method by its command line code.
type Method int

const (
	MethodIntegral Method = iota + 1
	MethodDarts
	MethodAccelerated
	MethodHybrid
	MethodBuffon
)

var methodNames = map[Method]string{
	MethodIntegral:    "integral",
	MethodDarts:       "montecarlo darts (cpu)",
	MethodAccelerated: "montecarlo darts (gpu)",
	MethodHybrid:      "montecarlo darts (gpu+cpu)",
	MethodBuffon:      "buffon's needle",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// Valid reports whether m names a known method.
func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// Methods lists the known methods in code order.
func Methods() []Method {
	return []Method{MethodIntegral, MethodDarts, MethodAccelerated, MethodHybrid, MethodBuffon}
}

// New builds the estimator selected by m. Unknown codes yield
// ErrInvalidMethodSelector and no estimator.
func New(m Method, opts ...OptionFunc) (Estimator, error) {
	switch m {
	case MethodIntegral:
		return NewIntegral(opts...), nil
	case MethodDarts:
		return NewDarts(opts...), nil
	case MethodAccelerated:
		return NewAccelerated(opts...), nil
	case MethodHybrid:
		h, err := NewHybrid(newOptions(opts).Ratio, opts...)
		if err != nil {
			return nil, err
		}
		return h, nil
	case MethodBuffon:
		return NewBuffon(opts...), nil
	default:
		return nil, fmt.Errorf("method %d: %w", int(m), ErrInvalidMethodSelector)
	}
}
