package monitor

import (
	"context"

	"codeberg.org/mutker/wellstatus/internal/sensor"
)

// Notifier delivers the startup alert. Notify reports whether the message
// was accepted and never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, message string) bool
}

// Sample is the outcome of one sampling cycle.
type Sample struct {
	Iteration   int
	Line        string
	Frame       sensor.Frame
	Measurement sensor.Measurement
	// Snapshot is set when the cycle also persisted a full reading.
	Snapshot bool
}
