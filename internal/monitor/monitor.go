package monitor

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"codeberg.org/mutker/wellstatus/internal/logger"
	"codeberg.org/mutker/wellstatus/internal/sensor"
	"codeberg.org/mutker/wellstatus/internal/store"
)

const startupMessage = "Well status program activated, water pressure is being monitored.  Initial pressure:%v."

// StartupMessage is the alert body sent after the first cycle.
func StartupMessage(psi float64) string {
	return fmt.Sprintf(startupMessage, psi)
}

// Monitor runs the sampling loop: one frame per cycle is decoded, converted
// and persisted, with a full reading every SnapshotEvery iterations.
type Monitor struct {
	cfg      Config
	reader   sensor.Reader
	repo     store.Repository
	notifier Notifier
	log      logger.Logger
	now      func() time.Time

	// Sticky raw values, updated field by field on successful decode.
	frame     sensor.Frame
	iteration int
}

type Option func(*Monitor)

// WithClock overrides the time source used for sample timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithLogger sets the local logger.
func WithLogger(log logger.Logger) Option {
	return func(m *Monitor) {
		m.log = log
	}
}

// New creates a Monitor. A nil notifier disables the startup alert.
func New(cfg Config, reader sensor.Reader, repo store.Repository, notifier Notifier, opts ...Option) (*Monitor, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, errFactory.New(ErrNoReader)
	}
	if repo == nil {
		return nil, errFactory.New(ErrNoRepository)
	}

	m := &Monitor{
		cfg:      cfg,
		reader:   reader,
		repo:     repo,
		notifier: notifier,
		log:      logger.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Run executes the loop until ctx is cancelled, then records the shutdown
// and releases the reader and the store. Per-cycle failures never end the
// loop.
func (m *Monitor) Run(ctx context.Context) error {
	m.repo.Info(ctx, "Program started")
	if version := m.repo.Version(); version != "" {
		m.repo.Info(ctx, version)
	}

	if ctx.Err() == nil {
		first := m.Cycle(ctx)
		if ctx.Err() == nil {
			m.notify(ctx, first)
		}

		for m.wait(ctx) {
			m.Cycle(ctx)
		}
	}

	return m.stop(context.WithoutCancel(ctx))
}

func (m *Monitor) notify(ctx context.Context, first Sample) {
	if m.notifier == nil {
		return
	}

	if !m.notifier.Notify(ctx, StartupMessage(first.Measurement.PressurePSI)) {
		m.log.Debug().Msg("Startup notification was not delivered")
	}
}

// wait sleeps for one interval. It returns false when ctx ends first.
func (m *Monitor) wait(ctx context.Context) bool {
	timer := time.NewTimer(m.cfg.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (m *Monitor) stop(ctx context.Context) error {
	errFactory := errors.New()

	m.repo.Info(ctx, "Program exited")

	readerErr := m.reader.Close()
	if err := m.repo.Close(); err != nil {
		return errFactory.Wrap(errors.ErrShutdownFailed, err)
	}
	if readerErr != nil {
		return errFactory.Wrap(errors.ErrShutdownFailed, readerErr)
	}

	return nil
}

// Cycle performs one sampling iteration. A cycle whose read is cut short by
// the end of ctx is abandoned without writing anything.
func (m *Monitor) Cycle(ctx context.Context) Sample {
	line, err := m.reader.ReadFrame(ctx)
	if ctx.Err() != nil {
		return Sample{Iteration: m.iteration, Line: line, Frame: m.frame}
	}
	if err != nil {
		m.log.Warn().Err(err).Msg("Using placeholder frame")
	}

	m.iteration++
	sample := Sample{Iteration: m.iteration, Line: line}

	m.repo.Info(ctx, line)

	frame, fieldErrs := sensor.Decode(line, m.frame)
	for _, fieldErr := range fieldErrs {
		m.log.Warn().Err(fieldErr).Str("line", line).Msg("Bad data from sensor")
		m.repo.Error(ctx, fieldErr.Error())
	}
	m.frame = frame
	sample.Frame = frame

	measurement := sensor.Convert(frame)
	sample.Measurement = measurement

	m.log.Info().
		Float64("temperature", measurement.TemperatureF).
		Float64("pressure", measurement.PressurePSI).
		Float64("humidity", measurement.Humidity).
		Msg("Sample")

	if _, err := m.repo.Prune(ctx, store.TableMessages, store.MaxMessageRecords); err != nil {
		m.log.Debug().Err(err).Msg("Message table not pruned")
	}

	at := m.now()
	if err := m.repo.InsertPressureSample(ctx, measurement.PressurePSI, at); err != nil {
		m.log.Debug().Err(err).Msg("Pressure sample dropped")
	}

	if m.iteration%m.cfg.SnapshotEvery == 0 {
		err := m.repo.InsertReading(ctx, store.Reading{
			TemperatureF: measurement.TemperatureF,
			PressurePSI:  measurement.PressurePSI,
			Humidity:     measurement.Humidity,
			Timestamp:    at,
		})
		if err != nil {
			m.log.Debug().Err(err).Msg("Reading dropped")
		}
		sample.Snapshot = true
		m.iteration = 0
	}

	return sample
}
