package estimator

import (
	"context"
	"time"

	"github.com/qcserestipy/gopi/pkg/randsrc"
	"github.com/qcserestipy/gopi/pkg/workerpool"
	"github.com/sirupsen/logrus"
)

// trials per progress report and cancellation check
const batchSize = 1 << 20

// hitKernel runs n trials against src and returns how many were hits.
type hitKernel func(src randsrc.Source, n uint64) uint64

type workerResult struct {
	hits uint64
	done uint64
}

// countHits partitions trials over the configured workers and reduces their
// private hit counts. Each worker constructs its own stream on entry; no
// stream is ever visible to a second worker.
func countHits(ctx context.Context, o Options, method string, trials uint64, kernel hitKernel) (uint64, error) {
	ranges := workerpool.Partition(trials, o.Workers)
	pool := workerpool.New[workerpool.Range, workerResult](workerpool.WithWorkers(o.Workers))

	logrus.WithFields(logrus.Fields{
		"method":  method,
		"workers": len(ranges),
		"trials":  trials,
	}).Debug("Work distribution prepared")

	partials, err := pool.Run(ctx, ranges, func(ctx context.Context, r workerpool.Range) workerResult {
		taskStart := time.Now()
		src := o.NewSource()

		var res workerResult
		for res.done < r.Len {
			if ctx.Err() != nil {
				break
			}
			n := min(batchSize, r.Len-res.done)
			res.hits += kernel(src, n)
			res.done += n
			o.Progress(n)
		}

		logrus.WithFields(logrus.Fields{
			"method":           method,
			"first_trial":      r.Start,
			"points_processed": res.done,
			"hits":             res.hits,
			"duration":         time.Since(taskStart),
		}).Debug("Worker completed")
		return res
	})
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var hits uint64
	for _, p := range partials {
		hits += p.hits
	}
	return hits, nil
}
