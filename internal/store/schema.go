package store

import (
	"context"
	"database/sql"
	"time"

	"codeberg.org/mutker/wellstatus/internal/errors"
	"codeberg.org/mutker/wellstatus/internal/logger"
)

const SchemaVersion = 1

// InitSchema creates any missing tables and records the schema version on
// a new database. Existing rows are never touched; a database written by a
// different schema version is rejected.
func InitSchema(ctx context.Context, db *sql.DB, d *dialect, log logger.Logger) error {
	errFactory := errors.New()

	// DDL runs outside a transaction: MySQL commits implicitly around it.
	for _, stmt := range d.createTables {
		log.Debug().Str("sql", stmt).Msg("Executing SQL statement")
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errFactory.WithData(ErrSchemaInitFailed, struct {
				Error string
				SQL   string
			}{
				Error: err.Error(),
				SQL:   stmt,
			})
		}
	}

	version, err := GetSchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	switch version {
	case SchemaVersion:
		log.Debug().Int("version", version).Msg("Schema version is current")
		return nil
	case 0:
		return recordSchemaVersion(ctx, db, log)
	default:
		return errFactory.WithData(ErrSchemaValidationFailed, struct {
			Found    int
			Expected int
		}{
			Found:    version,
			Expected: SchemaVersion,
		})
	}
}

func recordSchemaVersion(ctx context.Context, db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	// Track transaction state
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				if !errors.Is(err, sql.ErrTxDone) {
					log.Debug().Err(err).Msg("Failed to rollback transaction")
				}
			}
		}
	}()

	log.Debug().Msg("Recording schema version...")
	if _, err := tx.ExecContext(ctx, insertSchemaVersionSQL, SchemaVersion, time.Now()); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().
		Int("version", SchemaVersion).
		Msg("Schema initialized successfully")

	return nil
}

// GetSchemaVersion returns the recorded schema version, or 0 for a database
// that has none yet.
func GetSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, selectSchemaVersionSQL).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.New().WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}
