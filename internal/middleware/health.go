package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthChecker is one dependency the service needs to serve reports.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// DatabaseHealthChecker pings the profile database.
type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.DB.PingContext(ctx)
}

// CheckFunc adapts a function to HealthChecker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// HealthStatus is the /healthz body.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus is the result of one checker.
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ReadinessStatus is the /readyz body. Failing names are listed without causes.
type ReadinessStatus struct {
	Status  string   `json:"status"`
	Failing []string `json:"failing,omitempty"`
}

const checkTimeout = 5 * time.Second

// runChecks runs every checker concurrently under one deadline.
func runChecks(ctx context.Context, checkers map[string]HealthChecker) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var (
		mu  sync.Mutex
		out = make(map[string]error, len(checkers))
	)
	var g errgroup.Group
	for name, c := range checkers {
		g.Go(func() error {
			err := c.Check(ctx)
			mu.Lock()
			out[name] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// HealthHandler reports every check with its error message.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := HealthStatus{
			Status:    "healthy",
			Timestamp: time.Now(),
			Checks:    make(map[string]CheckStatus, len(checkers)),
		}
		for name, err := range runChecks(r.Context(), checkers) {
			if err != nil {
				health.Status = "unhealthy"
				health.Checks[name] = CheckStatus{Status: "unhealthy", Message: err.Error()}
				continue
			}
			health.Checks[name] = CheckStatus{Status: "healthy"}
		}

		code := http.StatusOK
		if health.Status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		writeStatus(w, code, health)
	}
}

// ReadinessHandler answers 503 with the failing check names until every checker passes.
func ReadinessHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := ReadinessStatus{Status: "ready"}
		for name, err := range runChecks(r.Context(), checkers) {
			if err != nil {
				ready.Failing = append(ready.Failing, name)
			}
		}
		if len(ready.Failing) > 0 {
			slices.Sort(ready.Failing)
			ready.Status = "not_ready"
			writeStatus(w, http.StatusServiceUnavailable, ready)
			return
		}
		writeStatus(w, http.StatusOK, ready)
	}
}

// LivenessHandler only proves the process serves HTTP.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeStatus(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
