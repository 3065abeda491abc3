package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/skyhook-ctl/flightcore/internal/dispatcher"

// commandMetrics counts operator commands per name on the global meter.
type commandMetrics struct {
	processed metric.Int64Counter
	failed    metric.Int64Counter
}

func newCommandMetrics() (commandMetrics, error) {
	m := otel.Meter(instrumentationName)

	processed, err := m.Int64Counter(
		"dispatcher.commands.processed",
		metric.WithDescription("Total commands processed"),
	)
	if err != nil {
		return commandMetrics{}, fmt.Errorf("creating processed counter: %w", err)
	}

	failed, err := m.Int64Counter(
		"dispatcher.commands.failed",
		metric.WithDescription("Total commands whose handler returned an error"),
	)
	if err != nil {
		return commandMetrics{}, fmt.Errorf("creating failed counter: %w", err)
	}

	return commandMetrics{processed: processed, failed: failed}, nil
}

// wrap counts every call of h and every error it returns, tagged with the command name.
func (c commandMetrics) wrap(command string, h HandlerFunc) HandlerFunc {
	cmdAttr := metric.WithAttributes(attribute.String("command", command))

	return func(e Event) (any, error) {
		result, err := h(e)
		c.processed.Add(context.Background(), 1, cmdAttr)
		if err != nil {
			c.failed.Add(context.Background(), 1, cmdAttr)
		}
		return result, err
	}
}
