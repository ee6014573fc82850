package metrics

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/andrescamacho/autopilot-go/internal/application/mediator"
)

// PrometheusMiddleware creates a middleware that records request execution metrics
//
// This middleware wraps every command/query dispatch and records:
// - Execution duration (histogram)
// - Success/failure counts (counter)
//
// Request names are extracted via reflection and simplified to remove package prefixes.
// For example: "*commands.EngageAutopilotCommand" becomes "EngageAutopilotCommand"
func PrometheusMiddleware(collector *RequestMetricsCollector) mediator.Middleware {
	return func(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) (mediator.Response, error) {
		// Skip metrics if collector is nil (metrics disabled)
		if collector == nil {
			return next(ctx, request)
		}

		requestName := extractRequestName(request)
		start := time.Now()

		response, err := next(ctx, request)

		collector.RecordRequestExecution(requestName, time.Since(start).Seconds(), err == nil)
		return response, err
	}
}

// extractRequestName extracts a clean request name using reflection
// Examples:
//   - "*commands.EngageAutopilotCommand" → "EngageAutopilotCommand"
//   - "*queries.GetAutopilotStatusQuery" → "GetAutopilotStatusQuery"
func extractRequestName(request mediator.Request) string {
	if request == nil {
		return "UnknownRequest"
	}

	fullName := strings.TrimPrefix(reflect.TypeOf(request).String(), "*")

	parts := strings.Split(fullName, ".")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}

	return fullName
}
