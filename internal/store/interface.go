package store

import (
	"context"
	"time"
)

// Table is one of the capped tables the store writes to. The set is closed:
// every statement touching a table is fixed per dialect.
type Table string

const (
	TableData     Table = "data"
	TablePressure Table = "pressure"
	TableMessages Table = "messages"
)

// Retention caps per table.
const (
	MaxDataRecords     = 20158
	MaxPressureRecords = 29
	MaxMessageRecords  = 4999
)

// MaxRecords returns the retention cap of t.
func (t Table) MaxRecords() int {
	switch t {
	case TableData:
		return MaxDataRecords
	case TablePressure:
		return MaxPressureRecords
	case TableMessages:
		return MaxMessageRecords
	default:
		return 0
	}
}

// Severity classifies an event message.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityError Severity = "ERROR"
)

// Reading is a full measurement row.
type Reading struct {
	TemperatureF float64
	PressurePSI  float64
	Humidity     float64
	Timestamp    time.Time
}

// Repository persists readings and event messages. Every method is its own
// failure boundary: a failed write is dropped, logged and the connection is
// repaired on the next call.
type Repository interface {
	InsertReading(ctx context.Context, r Reading) error
	InsertPressureSample(ctx context.Context, psi float64, at time.Time) error
	LogEvent(ctx context.Context, text string, severity Severity) error
	Info(ctx context.Context, text string)
	Error(ctx context.Context, text string)
	Prune(ctx context.Context, table Table, maxRecords int) (int64, error)
	Version() string
	Reconnects() int64
	Close() error
}
