// Package accel models the accelerator boundary: an opaque device that
// evaluates dart trials in a massively parallel domain and reports how many
// landed inside the unit quarter circle.
package accel

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable reports that the accelerator path cannot execute, because
// the device is absent, closed, or failed to allocate resources.
var ErrUnavailable = errors.New("accelerator unavailable")

// Device evaluates independent dart trials and returns the hit count.
// A failure is always reported as an error wrapping ErrUnavailable and is
// never folded into the count.
type Device interface {
	EvaluateTrials(ctx context.Context, trials uint64) (uint64, error)
	Name() string
	Close() error
}

// Unavailable is a Device that always fails. It stands in for builds or
// hosts without an accelerator.
type Unavailable struct {
	Reason string
}

func (u Unavailable) EvaluateTrials(context.Context, uint64) (uint64, error) {
	return 0, fmt.Errorf("%s: %w", u.Reason, ErrUnavailable)
}

func (u Unavailable) Name() string { return "none" }

func (u Unavailable) Close() error { return nil }

// Open returns the device registered under name: "sim" for the CPU backed
// lane simulator, "none" for a device that is always unavailable.
func Open(name string, opts ...Option) (Device, error) {
	switch name {
	case "sim", "":
		return NewSimulated(opts...), nil
	case "none":
		return Unavailable{Reason: "no accelerator configured"}, nil
	default:
		return nil, fmt.Errorf("unknown device %q: %w", name, ErrUnavailable)
	}
}
