package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findMetric(t *testing.T, reg *Registry, name string) bool {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return true
		}
	}
	return false
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NotNil(t, reg)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs, "go runtime metrics at minimum")
}

func TestRegistry_RecordRequest_StatusCodes(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			reg := NewRegistry()
			reg.RecordRequest("GET", "/logs", tt.status, 0.01)

			got := testutil.ToFloat64(reg.httpRequestsTotal.WithLabelValues("GET", "/logs", tt.expected))
			assert.Equal(t, 1.0, got)
		})
	}
}

func TestRegistry_InFlight(t *testing.T) {
	reg := NewRegistry()

	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.httpRequestsInFlight))
}

func TestRegistry_RecordCycle(t *testing.T) {
	reg := NewRegistry()

	reg.RecordCycle("S1", OutcomeOK, 0.2)
	reg.RecordCycle("S1", OutcomeOK, 0.3)
	reg.RecordCycle("S1", OutcomeFailed, 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.cycles.WithLabelValues("S1", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.cycles.WithLabelValues("S1", OutcomeFailed)))
	assert.True(t, findMetric(t, reg, "ats_cycle_duration_seconds"))
}

func TestRegistry_StrategyGauges(t *testing.T) {
	reg := NewRegistry()

	reg.SetWeight("S1", 9.5)
	reg.SetExposure("S1", 1)
	reg.RecordOrder("S1", "BUY", "filled")
	reg.TaskStarted()
	reg.TaskStarted()
	reg.TaskStopped()

	assert.Equal(t, 9.5, testutil.ToFloat64(reg.weight.WithLabelValues("S1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.signalState.WithLabelValues("S1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.orders.WithLabelValues("S1", "BUY", "filled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.tasksActive))
}

func TestRegistry_RegisterLogDrops(t *testing.T) {
	reg := NewRegistry()
	var dropped uint64 = 7
	reg.RegisterLogDrops(func() uint64 { return dropped })

	n, err := testutil.GatherAndCount(reg, "ats_log_entries_dropped_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// Ensure the registry implements prometheus.Gatherer interface
func TestRegistry_ImplementsGatherer(t *testing.T) {
	reg := NewRegistry()
	var _ prometheus.Gatherer = reg
}
