package monitor

import (
	"time"

	"codeberg.org/mutker/wellstatus/internal/errors"
)

const (
	DefaultInterval      = 5 * time.Second
	DefaultSnapshotEvery = 30
)

type Config struct {
	// Interval is the pause between two sampling cycles.
	Interval time.Duration
	// SnapshotEvery is the number of iterations between full readings.
	SnapshotEvery int
}

func DefaultConfig() Config {
	return Config{
		Interval:      DefaultInterval,
		SnapshotEvery: DefaultSnapshotEvery,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(ErrInvalidConfig, struct{ Interval time.Duration }{c.Interval})
	}
	if c.SnapshotEvery <= 0 {
		return errFactory.WithData(ErrInvalidConfig, struct{ SnapshotEvery int }{c.SnapshotEvery})
	}

	return nil
}
