// Copyright Project GoHPC Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/qcserestipy/gopi/pkg/driver"
	"github.com/qcserestipy/gopi/pkg/estimator"
	"github.com/qcserestipy/gopi/pkg/serve"
	"github.com/sirupsen/logrus"
)

func init() {
	formatter := &logrus.TextFormatter{}
	formatter.FullTimestamp = true
	formatter.TimestampFormat = time.RFC3339
	logrus.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(formatter)
}

// trialsVar parses -n with overflow detection.
type trialsVar uint64

func (v *trialsVar) String() string { return strconv.FormatUint(uint64(*v), 10) }

func (v *trialsVar) Set(s string) error {
	n, err := driver.ParseTrialCount(s)
	if err != nil {
		return err
	}
	*v = trialsVar(n)
	return nil
}

const usage = `usage: %s [options]
Approximate π with a selectable method.

Methods (-t):
  1 - integral (default)
  2 - montecarlo darts (cpu)
  3 - montecarlo darts (gpu)
  4 - montecarlo darts (gpu+cpu), split by -r
  5 - buffon's needle

Options:
`

func main() {
	cfg := driver.DefaultConfig()
	trials := trialsVar(cfg.Trials)

	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), usage, os.Args[0])
		fs.PrintDefaults()
	}
	fs.Var(&trials, "n", "number of trials")
	method := fs.Int("t", int(cfg.Method), "method, see above")
	workers := fs.Int("p", cfg.Workers, "number of worker threads (default: max)")
	fs.Float64Var(&cfg.GPURatio, "r", cfg.GPURatio, "ratio of trials sent to the accelerator for -t 4")
	fs.StringVar(&cfg.Device, "device", cfg.Device, "accelerator device: sim or none")
	fs.IntVar(&cfg.Lanes, "lanes", 0, "lanes of the simulated accelerator (default 4096)")
	progress := fs.Bool("progress", false, "show a progress bar")
	verbose := fs.Bool("v", false, "debug logging")
	addr := fs.String("serve", "", "serve the HTTP API on this address instead of running once, e.g. localhost:3000")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return
		}
		logrus.Fatalf("Invalid arguments: %v", err)
	}
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	cfg.Trials = uint64(trials)
	cfg.Method = estimator.Method(*method)
	if *workers > 0 {
		cfg.Workers = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *addr != "" {
		if err := serve.Launch(ctx, serve.New(serve.WithBaseConfig(cfg)), *addr); err != nil {
			logrus.Fatalf("Server failed: %v", err)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Error: %v. Try -h for help!", err)
	}
	logrus.Infof("Trials= %d with num threads= %d", cfg.Trials, cfg.Workers)

	var bar *pb.ProgressBar
	if *progress && cfg.Trials <= math.MaxInt64 {
		bar = pb.Start64(int64(cfg.Trials))
		cfg.Progress = func(n uint64) { bar.Add64(int64(n)) }
	}

	report, err := driver.Run(ctx, cfg)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		logrus.Fatalf("%s failed after %s: %v", cfg.Method, report.Elapsed, err)
	}

	logrus.WithFields(logrus.Fields{
		"method":   report.ID,
		"error":    report.AbsError,
		"duration": report.Elapsed,
	}).Info(report.String())
}
