package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"github.com/go-sql-driver/mysql"
)

const (
	defaultDirPerm = 0o755
	defaultDBPath  = "/var/lib/wellstatus/wellstatus.db"
	defaultTimeout = 5 * time.Second
)

// Config describes how to reach the relational store.
type Config struct {
	Driver   string        `mapstructure:"driver"`
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Database string        `mapstructure:"database"`
	Path     string        `mapstructure:"path"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		Driver:   DriverMySQL,
		Address:  "127.0.0.1:3306",
		Database: "wellstatus",
		Path:     defaultDBPath,
		Timeout:  defaultTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	switch c.Driver {
	case DriverMySQL:
		if c.Address == "" || c.Database == "" {
			return errFactory.New(ErrMissingAddress)
		}
	case DriverSQLite:
		if c.Path == "" {
			return errFactory.New(ErrInvalidDBPath)
		}
	default:
		return errFactory.WithData(ErrInvalidDriver, c.Driver)
	}

	return nil
}

// DSN returns the data source name for the configured driver.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		return c.Path + "?_journal=WAL&_busy_timeout=5000"
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = c.Address
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Timeout = c.Timeout
	cfg.ReadTimeout = c.Timeout
	cfg.WriteTimeout = c.Timeout

	return cfg.FormatDSN()
}

// Opener returns a function that opens a fresh handle for the configured
// driver. The handle is not yet verified; the store probes it.
func (c Config) Opener() Opener {
	return func(_ context.Context) (*sql.DB, error) {
		errFactory := errors.New()

		if c.Driver == DriverSQLite {
			if err := os.MkdirAll(filepath.Dir(c.Path), defaultDirPerm); err != nil {
				return nil, errFactory.WithData(ErrConnect, struct {
					Phase string
					Path  string
					Error string
				}{
					Phase: "create_directory",
					Path:  c.Path,
					Error: err.Error(),
				})
			}
		}

		db, err := sql.Open(c.Driver, c.DSN())
		if err != nil {
			return nil, errFactory.WithData(ErrConnect, struct {
				Phase string
				Error string
			}{
				Phase: "open_database",
				Error: err.Error(),
			})
		}

		// One logical thread of control; a single connection keeps
		// pruning and inserts on the same session.
		db.SetMaxOpenConns(1)

		return db, nil
	}
}
