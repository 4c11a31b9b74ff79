package store

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"codeberg.org/mutker/wellstatus/internal/logger"
)

// Opener opens a new, unverified database handle.
type Opener func(ctx context.Context) (*sql.DB, error)

// Option customizes a Store.
type Option func(*Store)

// WithOpener replaces the driver-based opener derived from Config.
func WithOpener(open Opener) Option {
	return func(s *Store) {
		s.open = open
	}
}

// WithClock replaces the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// conn is an established, probed connection. It is never modified after
// creation; reconnecting builds a new one and swaps it in.
type conn struct {
	db      *sql.DB
	version string
}

// Store is the relational Repository. It owns the only database handle in
// the process.
type Store struct {
	cfg        Config
	dialect    *dialect
	open       Opener
	now        func() time.Time
	log        logger.Logger
	conn       atomic.Pointer[conn]
	stale      atomic.Bool
	closed     atomic.Bool
	reconnects atomic.Int64
}

// Open connects to the store, probes it and prepares the schema. A failure
// here is fatal to the caller: nothing is sampled without a store.
func Open(ctx context.Context, cfg Config, log logger.Logger, opts ...Option) (*Store, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	d, _ := dialectFor(cfg.Driver)

	s := &Store{
		cfg:     cfg,
		dialect: d,
		open:    cfg.Opener(),
		now:     time.Now,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}

	c, err := s.connect(ctx)
	if err != nil {
		return nil, errFactory.Wrap(ErrConnect, err)
	}

	if err := InitSchema(ctx, c.db, d, log); err != nil {
		c.db.Close()
		return nil, errFactory.Wrap(ErrConnect, err)
	}

	s.conn.Store(c)

	log.Info().
		Str("driver", cfg.Driver).
		Str("version", c.version).
		Int("schema_version", SchemaVersion).
		Msg("Store initialized")

	return s, nil
}

func (s *Store) connect(ctx context.Context) (*conn, error) {
	errFactory := errors.New()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	var version string
	if err := db.QueryRowContext(ctx, s.dialect.versionSQL).Scan(&version); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrProbe, err)
	}

	return &conn{db: db, version: version}, nil
}

// reconnect replaces the current handle with a freshly probed one. It makes
// exactly one attempt; on failure the store stays stale and the next
// operation tries again.
func (s *Store) reconnect(ctx context.Context) error {
	s.reconnects.Add(1)

	c, err := s.connect(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Database reconnection failed, will retry on next operation")
		return errors.New().Wrap(ErrReconnect, err)
	}

	if old := s.conn.Swap(c); old != nil {
		old.db.Close()
	}
	s.stale.Store(false)

	s.log.Info().Str("version", c.version).Msg("Database connection established")
	s.Info(ctx, "Database connection established")
	s.Info(ctx, c.version)

	return nil
}

// handle returns the live handle, repairing a stale connection first.
func (s *Store) handle(ctx context.Context) (*sql.DB, error) {
	if s.closed.Load() {
		return nil, errors.New().WithMessage(ErrStoreOperation, "store is closed")
	}

	if s.stale.Load() {
		if err := s.reconnect(ctx); err != nil {
			return nil, err
		}
	}

	c := s.conn.Load()
	if c == nil {
		return nil, errors.New().WithMessage(ErrStoreOperation, "store is closed")
	}

	return c.db, nil
}

// fail reports a dropped operation and marks the connection stale. An
// operation abandoned because ctx ended says nothing about the connection,
// so it leaves the handle in place.
func (s *Store) fail(ctx context.Context, op string, err error) error {
	if abandoned(ctx, err) {
		s.log.Debug().
			Err(err).
			Str("operation", op).
			Msg("Database operation abandoned")
	} else {
		s.stale.Store(true)

		s.log.Error().
			Err(err).
			Str("operation", op).
			Msg("Database operation failed, write dropped")
	}

	return errors.New().WithData(ErrStoreOperation, struct {
		Operation string
		Error     string
	}{
		Operation: op,
		Error:     err.Error(),
	})
}

func abandoned(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}

	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (s *Store) exec(ctx context.Context, op, query string, args ...any) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return s.fail(ctx, op, err)
	}

	return nil
}

// InsertPressureSample prunes the pressure table and appends one sample.
func (s *Store) InsertPressureSample(ctx context.Context, psi float64, at time.Time) error {
	_, _ = s.Prune(ctx, TablePressure, TablePressure.MaxRecords())

	if err := s.exec(ctx, "insert_pressure", insertPressureSQL, psi, at); err != nil {
		s.Error(ctx, "Error occurred while adding new pressure record")
		return err
	}

	s.Info(ctx, "Adding new pressure record")
	return nil
}

// InsertReading prunes the data table and appends one full reading.
func (s *Store) InsertReading(ctx context.Context, r Reading) error {
	_, _ = s.Prune(ctx, TableData, TableData.MaxRecords())

	err := s.exec(ctx, "insert_reading", insertReadingSQL,
		r.TemperatureF, r.PressurePSI, r.Humidity, r.Timestamp)
	if err != nil {
		s.Error(ctx, "Error occurred while adding new data record")
		return err
	}

	s.Info(ctx, "Adding new data record")
	return nil
}

// LogEvent appends an event message. A failure is only logged locally so
// that reporting an error can never recurse.
func (s *Store) LogEvent(ctx context.Context, text string, severity Severity) error {
	return s.exec(ctx, "log_"+string(severity), insertMessageSQL, text, s.now(), string(severity))
}

// Info records an INFO event, best effort.
func (s *Store) Info(ctx context.Context, text string) {
	_ = s.LogEvent(ctx, text, SeverityInfo)
}

// Error records an ERROR event, best effort.
func (s *Store) Error(ctx context.Context, text string) {
	_ = s.LogEvent(ctx, text, SeverityError)
}

// Version returns the server version reported by the last liveness probe.
func (s *Store) Version() string {
	if c := s.conn.Load(); c != nil {
		return c.version
	}

	return ""
}

// Reconnects returns how many reconnection attempts have been made.
func (s *Store) Reconnects() int64 {
	return s.reconnects.Load()
}

func (s *Store) Close() error {
	s.closed.Store(true)

	c := s.conn.Swap(nil)
	if c == nil {
		return nil
	}

	if s.dialect.closeSQL != "" {
		if _, err := c.db.Exec(s.dialect.closeSQL); err != nil {
			s.log.Debug().Err(err).Msg("Failed to checkpoint database on close")
		}
	}

	if err := c.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	s.log.Info().Msg("Store closed gracefully")

	return nil
}
