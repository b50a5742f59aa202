package supervisor

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/elixoids/miner/internal/supervisor"

type metrics struct {
	attempts metric.Int64Counter
	ticks    metric.Int64Counter
	commands metric.Int64Counter
}

// newMetrics uses the global OTel meter (no-op if not configured).
func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)

	attempts, err := m.Int64Counter(
		"supervisor.connection.attempts",
		metric.WithDescription("Connection attempts, labelled by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating attempts counter: %w", err)
	}

	ticks, err := m.Int64Counter(
		"supervisor.ticks",
		metric.WithDescription("Frames processed that carried contacts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	commands, err := m.Int64Counter(
		"supervisor.commands",
		metric.WithDescription("Commands sent, labelled by fire"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating commands counter: %w", err)
	}

	return &metrics{attempts: attempts, ticks: ticks, commands: commands}, nil
}
