package health

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(status Status) func(context.Context) Report {
	return func(context.Context) Report {
		return Report{Status: status, Message: string(status)}
	}
}

func TestWorst(t *testing.T) {
	assert.Equal(t, Healthy, Worst())
	assert.Equal(t, Degraded, Worst(Healthy, Degraded))
	assert.Equal(t, Unhealthy, Worst(Degraded, Unhealthy, Healthy))
}

func TestCheckAll(t *testing.T) {
	status, results := CheckAll(context.Background(), []Check{
		{Name: "store", Check: fixed(Healthy)},
		{Name: "peer", Check: fixed(Degraded)},
	})

	assert.Equal(t, Degraded, status)
	require.Len(t, results, 2)
	assert.Equal(t, "store", results[0].Name)
	assert.Equal(t, "peer", results[1].Name)
	assert.Equal(t, http.StatusOK, status.HTTPCode())
	assert.Equal(t, http.StatusServiceUnavailable, Unhealthy.HTTPCode())
}
