package accel

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/qcserestipy/gopi/pkg/randsrc"
	"github.com/qcserestipy/gopi/pkg/workerpool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"
)

// DefaultLanes is the lane count of a simulated device.
const DefaultLanes = 4096

// trials between cancellation checks inside a lane
const laneCheckEvery = 1 << 14

type Option func(*Simulated)

// WithLanes sets the number of concurrent lanes. Values below one are ignored.
func WithLanes(n int) Option {
	return func(s *Simulated) {
		if n > 0 {
			s.lanes = n
		}
	}
}

// WithSource overrides the per-lane random stream factory.
func WithSource(f randsrc.Factory) Option {
	return func(s *Simulated) {
		if f != nil {
			s.newSource = f
		}
	}
}

// Simulated is a CPU backed Device. Every lane is a goroutine with its own
// random stream and its own counter; counters are summed once all lanes
// have finished.
type Simulated struct {
	lanes     int
	newSource randsrc.Factory
	closed    atomic.Bool
}

// laneCounter occupies its own cache line so neighbouring lanes never
// invalidate each other's writes.
type laneCounter struct {
	hits uint64
	_    cpu.CacheLinePad
}

func NewSimulated(opts ...Option) *Simulated {
	s := &Simulated{
		lanes:     DefaultLanes,
		newSource: randsrc.New,
	}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

func (s *Simulated) Name() string {
	return fmt.Sprintf("sim/%d", s.lanes)
}

// Lanes returns the configured lane count.
func (s *Simulated) Lanes() int { return s.lanes }

func (s *Simulated) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *Simulated) EvaluateTrials(ctx context.Context, trials uint64) (uint64, error) {
	if s.closed.Load() {
		return 0, fmt.Errorf("%s: device closed: %w", s.Name(), ErrUnavailable)
	}
	if trials == 0 {
		return 0, nil
	}

	start := time.Now()
	ranges := workerpool.Partition(trials, s.lanes)
	counters := make([]laneCounter, len(ranges))

	g, ctx := errgroup.WithContext(ctx)
	for i, r := range ranges {
		g.Go(func() error {
			src := s.newSource()
			var hits uint64
			for j := uint64(0); j < r.Len; j++ {
				if j%laneCheckEvery == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				x, y := src.Float64(), src.Float64()
				if x*x+y*y <= 1.0 {
					hits++
				}
			}
			counters[i].hits = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("%s: %w", s.Name(), err)
	}

	var total uint64
	for i := range counters {
		total += counters[i].hits
	}

	log.WithFields(log.Fields{
		"device":   s.Name(),
		"lanes":    len(ranges),
		"trials":   trials,
		"hits":     total,
		"duration": time.Since(start),
	}).Debug("Device batch completed")

	return total, nil
}
