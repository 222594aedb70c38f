package genetic

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/cannonfire/planner/internal/genetic"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
