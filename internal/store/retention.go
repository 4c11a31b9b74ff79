package store

import (
	"context"
	"database/sql"
	"fmt"

	"codeberg.org/mutker/wellstatus/internal/errors"
)

// Prune deletes the oldest rows of table so that at most maxRecords remain,
// oldest first by insertion index. Counting and deleting share one
// transaction. When nothing needs removing an INFO event says so. Failures
// are recorded as ERROR events and schedule a reconnection; they never
// propagate further than the returned error.
func (s *Store) Prune(ctx context.Context, table Table, maxRecords int) (int64, error) {
	errFactory := errors.New()

	countSQL, ok := s.dialect.countSQL[table]
	if !ok {
		return 0, errFactory.WithData(ErrUnknownTable, string(table))
	}
	pruneSQL := s.dialect.pruneSQL[table]

	db, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		err = s.fail(ctx, "prune_"+string(table), err)
		s.Error(ctx, fmt.Sprintf("Unable to prune table %s", table))
		return 0, err
	}

	// Track transaction state. The transaction is always finished before
	// an event is recorded, since events need the connection it holds.
	done := false
	defer func() {
		if !done {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				s.log.Debug().Err(err).Msg("Failed to rollback prune")
			}
		}
	}()

	abort := func(op, event string, err error) (int64, error) {
		_ = tx.Rollback()
		done = true
		err = s.fail(ctx, op+"_"+string(table), err)
		s.Error(ctx, event)
		return 0, err
	}

	var count int64
	if err := tx.QueryRowContext(ctx, countSQL).Scan(&count); err != nil {
		return abort("count", fmt.Sprintf("Unable to count records from the table %s", table), err)
	}

	excess := count - int64(maxRecords)
	if excess <= 0 {
		_ = tx.Rollback()
		done = true
		s.Info(ctx, fmt.Sprintf("Max records not reached in table %s: no records removed", table))
		return 0, nil
	}

	res, err := tx.ExecContext(ctx, pruneSQL, excess)
	if err != nil {
		return abort("prune", fmt.Sprintf("Unable to remove old records from the table %s", table), err)
	}

	if err := tx.Commit(); err != nil {
		return abort("prune", fmt.Sprintf("Unable to remove old records from the table %s", table),
			errFactory.Wrap(ErrTransactionFailed, err))
	}
	done = true

	deleted, err := res.RowsAffected()
	if err != nil {
		deleted = excess
	}

	s.log.Debug().
		Str("table", string(table)).
		Int64("count", count).
		Int64("deleted", deleted).
		Msg("Pruned table")

	return deleted, nil
}
