package health

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
)

type Status string

const (
	Healthy   Status = "healthy"
	Degraded  Status = "degraded"
	Unhealthy Status = "unhealthy"
)

// HTTPCode maps a status to the code served on /health.
func (s Status) HTTPCode() int {
	if s == Unhealthy {
		return http.StatusServiceUnavailable
	}

	return http.StatusOK
}

func (s Status) rank() int {
	switch s {
	case Healthy:
		return 0
	case Degraded:
		return 1
	default:
		return 2
	}
}

// Worst returns the least healthy of the given statuses, Healthy when empty.
func Worst(statuses ...Status) Status {
	worst := Healthy

	for _, s := range statuses {
		if s.rank() > worst.rank() {
			worst = s
		}
	}

	return worst
}

// Report is what a single component says about itself.
type Report struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

type Check struct {
	Name  string
	Check func(ctx context.Context) Report
}

type Result struct {
	Name string `json:"name"`
	Report
}

// CheckAll runs every check concurrently and returns the worst status together
// with the individual results in check order.
func CheckAll(ctx context.Context, checks []Check) (Status, []Result) {
	results := make([]Result, len(checks))

	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)

	for i, check := range checks {
		g.Go(func() error {
			report := check.Check(gCtx)

			mu.Lock()
			results[i] = Result{Name: check.Name, Report: report}
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	statuses := make([]Status, 0, len(results))
	for _, r := range results {
		statuses = append(statuses, r.Status)
	}

	return Worst(statuses...), results
}
