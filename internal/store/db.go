package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Knetic/go-namedParameterQuery"
	"github.com/go-sql-driver/mysql"
	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jmoiron/sqlx"
)

// MySQL server error numbers.
const (
	errLockDeadlock = 1213
	errDupEntry     = 1062
)

// maxTxAttempts bounds how often a deadlocked transaction is replayed.
const maxTxAttempts = 3

type ltx struct {
	*sqlx.Tx
}

func (t ltx) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, fmt.Errorf("already in transaction")
}

type txDB interface {
	Commit() error
	Rollback() error
}

func (ms *MYSQLStore) DB() dependency.DB {
	return ms.db
}

// Tx runs f inside a transaction and rolls it back when f fails. A deadlock
// replays f up to maxTxAttempts times, so f must return store errors
// unchanged or wrapped with %w.
func (ms *MYSQLStore) Tx(ctx context.Context, f func(context.Context, dependency.Repository) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		var tx *MYSQLStore
		tx, err = ms.txBegin(ctx)
		if err != nil {
			return err
		}
		if err = f(ctx, tx); err == nil {
			if err = tx.txEnd(tx.txDB.Commit); err == nil {
				return nil
			}
		}
		_ = tx.txEnd(tx.txDB.Rollback)
		if !ms.IsErrorRepeat(err) {
			return err
		}
		slog.Default().WarnContext(ctx, "transaction deadlocked, retrying",
			slog.Int("attempt", attempt),
		)
	}
	return fmt.Errorf("transaction gave up after %d attempts: %w", maxTxAttempts, err)
}

func (ms *MYSQLStore) txBegin(ctx context.Context) (*MYSQLStore, error) {
	tx, err := ms.DB().BeginTxx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &MYSQLStore{
		db:           ltx{Tx: tx},
		txDB:         tx,
		queryTimeout: ms.queryTimeout,
		close:        ms.close,
	}, nil
}

// txEnd commits or rolls back and detaches the store from the transaction.
func (ms *MYSQLStore) txEnd(end func() error) error {
	if ms.txDB == nil {
		return fmt.Errorf("not in transaction")
	}
	if err := end(); err != nil {
		return err
	}
	ms.db = nil
	ms.txDB = nil
	return nil
}

func mysqlErrNumber(err error) uint16 {
	var e *mysql.MySQLError
	if errors.As(err, &e) {
		return e.Number
	}
	return 0
}

func (ms *MYSQLStore) IsErrorRepeat(err error) bool {
	return mysqlErrNumber(err) == errLockDeadlock
}

func (ms *MYSQLStore) IsErrUniqueViolation(err error) bool {
	return mysqlErrNumber(err) == errDupEntry
}

// bindNamed rewrites :name parameters to positional ones and expands slice
// arguments for IN clauses.
func bindNamed(query string, params map[string]any) (string, []any, error) {
	q := namedParameterQuery.NewNamedParameterQuery(query)
	q.SetValuesFromMap(params)
	query, args, err := sqlx.In(q.GetParsedQuery(), q.GetParsedParameters()...)
	if err != nil {
		return "", nil, fmt.Errorf("sqlx in: %w", err)
	}
	return query, args, nil
}

func QueryListNamed[T any](ctx context.Context, conn dependency.DB, query string, params map[string]any) ([]T, error) {
	query, args, err := bindNamed(query, params)
	if err != nil {
		return nil, err
	}
	target := []T{}
	if err := conn.SelectContext(ctx, &target, query, args...); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return target, nil
}

func QueryNamedOne[T any](ctx context.Context, conn dependency.DB, query string, params map[string]any) (T, error) {
	var target T
	query, args, err := bindNamed(query, params)
	if err != nil {
		return target, err
	}
	if err := conn.GetContext(ctx, &target, query, args...); err != nil {
		return target, fmt.Errorf("get: %w", err)
	}
	return target, nil
}

func QueryCountNamed(ctx context.Context, conn dependency.DB, query string, params map[string]any) (int, error) {
	var count int
	query, args, err := bindNamed(query, params)
	if err != nil {
		return 0, err
	}
	if err := conn.QueryRowxContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return count, nil
}

// ExecNamed executes query and returns the number of affected rows.
func ExecNamed(ctx context.Context, conn dependency.DB, query string, params map[string]any) (int64, error) {
	res, err := execNamed(ctx, conn, query, params)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExecNamedLastId executes an insert and returns the generated id.
func ExecNamedLastId(ctx context.Context, conn dependency.DB, query string, params map[string]any) (int, error) {
	res, err := execNamed(ctx, conn, query, params)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func execNamed(ctx context.Context, conn dependency.DB, query string, params map[string]any) (sql.Result, error) {
	query, args, err := bindNamed(query, params)
	if err != nil {
		return nil, err
	}
	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec: %w", err)
	}
	return res, nil
}
