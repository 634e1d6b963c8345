package serve

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/qcserestipy/gopi/pkg/driver"
	"github.com/qcserestipy/gopi/pkg/estimator"
	log "github.com/sirupsen/logrus"
)

type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// RunRequest is the body of POST /runs. Zero-valued optional fields fall
// back to the server's base configuration. The worker count is not part of
// a request: every run uses the count the server was started with.
type RunRequest struct {
	Trials   uint64   `json:"trials"`
	Method   int      `json:"method"`
	GPURatio *float64 `json:"gpu_ratio,omitempty"`
	Device   string   `json:"device,omitempty"`
}

type Run struct {
	ID      int            `json:"id"`
	Status  RunStatus      `json:"status"`
	Request RunRequest     `json:"request"`
	Result  *driver.Report `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func (r Run) StatusCode() int {
	if r.Status == StatusFailed {
		return http.StatusUnprocessableEntity
	}
	return http.StatusCreated
}

type methodInfo struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

type runStore struct {
	mu   sync.Mutex
	runs []Run
}

func (s *runStore) add(req RunRequest) Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := Run{ID: len(s.runs) + 1, Status: StatusPending, Request: req}
	s.runs = append(s.runs, run)
	return run
}

func (s *runStore) update(run Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID-1] = run
}

func (s *runStore) get(id int) (Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id <= 0 || id > len(s.runs) {
		return Run{}, false
	}
	return s.runs[id-1], true
}

func (s *runStore) list() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Run{}, s.runs...)
}

func (s *ComputeServer) config(req RunRequest) driver.Config {
	cfg := s.base
	cfg.Trials = req.Trials
	cfg.Method = estimator.Method(req.Method)
	if req.GPURatio != nil {
		cfg.GPURatio = *req.GPURatio
	}
	if req.Device != "" {
		cfg.Device = req.Device
	}
	return cfg
}

// execute runs req through the driver. Invalid configurations are rejected
// without being recorded; computational failures are recorded as failed runs.
func (s *ComputeServer) execute(ctx context.Context, req RunRequest) (Run, error) {
	cfg := s.config(req)
	if err := cfg.Validate(); err != nil {
		return Run{}, &requestError{err: err}
	}

	run := s.runs.add(req)
	run.Status = StatusRunning
	s.runs.update(run)

	report, err := driver.Run(ctx, cfg)
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		log.WithField("run", run.ID).Warnf("Run failed: %v", err)
	} else {
		run.Status = StatusCompleted
		run.Result = &report
	}
	s.runs.update(run)
	return run, nil
}

func createMethodRoute(r chi.Router) {
	r.Get("/methods", func(w http.ResponseWriter, _ *http.Request) {
		methods := estimator.Methods()
		infos := make([]methodInfo, len(methods))
		for i, m := range methods {
			infos[i] = methodInfo{Code: int(m), Name: m.String()}
		}
		writeJSON(w, http.StatusOK, infos)
	})
}

func createRunRoutes(r chi.Router, s *ComputeServer) {
	r.Get("/runs", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.runs.list())
	})

	r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		idParam := chi.URLParam(req, "id")
		id, err := strconv.Atoi(idParam)
		if err != nil {
			http.Error(w,
				fmt.Sprintf("invalid run ID '%s': %v", idParam, err),
				http.StatusBadRequest,
			)
			return
		}
		run, ok := s.runs.get(id)
		if !ok {
			http.Error(w,
				fmt.Sprintf("run not found with ID %d", id),
				http.StatusNotFound,
			)
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	CreateRoutes(r, "/runs", s.execute)
}
