package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/autopilot-go/internal/application/mediator"
)

func withRegistry(t *testing.T) {
	t.Helper()
	InitRegistry()
	t.Cleanup(func() {
		Registry = nil
		globalAutopilotCollector = nil
	})
}

type engageRequest struct{}

func TestAutopilotMetricsCollector_Records(t *testing.T) {
	// Arrange
	withRegistry(t)
	c := NewAutopilotMetricsCollector()
	require.NoError(t, c.Register())
	SetGlobalAutopilotCollector(c)

	// Act
	RecordCommandEngaged("DOCK")
	RecordCommandEngaged("DOCK")
	RecordCommandFinished("DOCK", "failed", 12, 1.2)
	RecordChildSpawned("DOCK", "FLY_TO")
	RecordAIMessage("PERMISSION_REFUSED")
	RecordTick(3, 0.0001)
	RecordTick(2, 0.0001)

	// Assert
	assert.Equal(t, 2.0, testutil.ToFloat64(c.commandsEngaged.WithLabelValues("DOCK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commandsFinished.WithLabelValues("DOCK", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.childrenSpawned.WithLabelValues("DOCK", "FLY_TO")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.aiMessages.WithLabelValues("PERMISSION_REFUSED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ticksTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.activeCommands))
	assert.Equal(t, 2, testutil.CollectAndCount(c.commandTicks)+testutil.CollectAndCount(c.commandGameTime))
}

func TestAutopilotMetricsCollector_RegisterTwiceFails(t *testing.T) {
	withRegistry(t)
	require.NoError(t, NewAutopilotMetricsCollector().Register())
	assert.Error(t, NewAutopilotMetricsCollector().Register())
}

func TestRegister_DisabledIsNoop(t *testing.T) {
	Registry = nil
	assert.False(t, IsEnabled())
	assert.NoError(t, NewAutopilotMetricsCollector().Register())
	assert.NoError(t, NewRequestMetricsCollector().Register())

	// no global collector: recording must not panic
	RecordCommandEngaged("HOLD_POSITION")
	RecordTick(0, 0)
}

func TestPrometheusMiddleware_RecordsOutcome(t *testing.T) {
	// Arrange
	withRegistry(t)
	c := NewRequestMetricsCollector()
	require.NoError(t, c.Register())
	mw := PrometheusMiddleware(c)
	ok := func(ctx context.Context, request mediator.Request) (mediator.Response, error) { return "done", nil }
	fail := func(ctx context.Context, request mediator.Request) (mediator.Response, error) { return nil, errors.New("boom") }

	// Act
	resp, err := mw(context.Background(), &engageRequest{}, ok)
	_, failErr := mw(context.Background(), &engageRequest{}, fail)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "done", resp)
	assert.EqualError(t, failErr, "boom")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("engageRequest", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("engageRequest", "error")))
}

func TestPrometheusMiddleware_NilCollectorPassesThrough(t *testing.T) {
	mw := PrometheusMiddleware(nil)
	resp, err := mw(context.Background(), &engageRequest{}, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, resp)
}

func TestExtractRequestName(t *testing.T) {
	assert.Equal(t, "engageRequest", extractRequestName(&engageRequest{}))
	assert.Equal(t, "UnknownRequest", extractRequestName(nil))
}
