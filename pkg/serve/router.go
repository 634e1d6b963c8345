// Package serve exposes the driver over a small local HTTP API so runs can
// be started and inspected with curl. Runs live in memory only.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	logger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/qcserestipy/gopi/pkg/driver"
	log "github.com/sirupsen/logrus"
)

type ComputeServer struct {
	Router *chi.Mux
	base   driver.Config
	runs   *runStore
}

type Option func(*ComputeServer)

// WithBaseConfig sets the configuration requests are layered on. Its
// worker count is the process-wide default for every run.
func WithBaseConfig(cfg driver.Config) Option {
	return func(s *ComputeServer) { s.base = cfg }
}

func New(opts ...Option) *ComputeServer {
	s := &ComputeServer{
		base: driver.DefaultConfig(),
		runs: &runStore{},
	}
	for _, fn := range opts {
		fn(s)
	}
	// runs are reported through the API, never through a progress bar
	s.base.Progress = nil

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Logger("router", log.StandardLogger()))
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	createMethodRoute(r)
	createRunRoutes(r, s)

	s.Router = r
	return s
}

// Launch serves s on addr until ctx is cancelled, then shuts down
// gracefully.
func Launch(ctx context.Context, s *ComputeServer, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// statusCoder lets a response choose its own HTTP status.
type statusCoder interface {
	StatusCode() int
}

// requestError marks a failure caused by the request itself.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

// CreateRoutes registers a strict JSON POST endpoint on path. Bodies with
// unknown fields are rejected. Errors of type *requestError map to 400 and
// all others to 500.
func CreateRoutes[T any, R any](
	r chi.Router,
	path string,
	fn func(context.Context, T) (R, error),
) {
	r.Post(path, func(w http.ResponseWriter, req *http.Request) {
		var in T
		decoder := json.NewDecoder(req.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&in); err != nil {
			http.Error(w, "invalid JSON or schema mismatch: "+err.Error(), http.StatusBadRequest)
			return
		}

		res, err := fn(req.Context(), in)
		if err != nil {
			var reqErr *requestError
			if errors.As(err, &reqErr) {
				http.Error(w, "validation error: "+err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "processing error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		status := http.StatusOK
		if sc, ok := any(res).(statusCoder); ok {
			status = sc.StatusCode()
		}
		writeJSON(w, status, res)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("Encoding response failed: %v", err)
	}
}
