package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/youssefsiam38/agentctx/audit"
)

// sqlTxContextKey is the context key for storing *sql.Tx
type sqlTxContextKey struct{}

// WithSQLTx returns a new context with the given database/sql transaction
func WithSQLTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, sqlTxContextKey{}, tx)
}

// SQLTxFromContext retrieves the transaction from context, or nil if not present
func SQLTxFromContext(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(sqlTxContextKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}

// sqlQuerier is a common interface for *sql.DB and *sql.Tx
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store using database/sql and lib/pq
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore creates a new database/sql store. db must use the "postgres"
// driver registered by lib/pq.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// OpenSQLStore opens a lib/pq connection for connStr.
func OpenSQLStore(connStr string) (*SQLStore, error) {
	connector, err := pq.NewConnector(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	return NewSQLStore(sql.OpenDB(connector)), nil
}

// DB returns the underlying database handle
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) getQuerier(ctx context.Context) sqlQuerier {
	if tx := SQLTxFromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}

// Migrate creates the audit table and indexes
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.getQuerier(ctx).ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate audit schema: %w", err)
	}
	return nil
}

// SaveAuditEvent saves a single audit event
func (s *SQLStore) SaveAuditEvent(ctx context.Context, event *audit.Event) error {
	if err := validateEvent(event); err != nil {
		return err
	}
	if _, err := s.getQuerier(ctx).ExecContext(ctx, insertEventQuery, insertArgs(event)...); err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

// SaveAuditEvents saves multiple audit events in one transaction. An
// existing transaction in ctx is reused.
func (s *SQLStore) SaveAuditEvents(ctx context.Context, events []*audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	for _, event := range events {
		if err := validateEvent(event); err != nil {
			return err
		}
	}

	if SQLTxFromContext(ctx) != nil {
		return s.insertAll(ctx, events)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := s.insertAll(WithSQLTx(ctx, tx), events); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit events: %w", err)
	}
	return nil
}

func (s *SQLStore) insertAll(ctx context.Context, events []*audit.Event) error {
	q := s.getQuerier(ctx)
	for _, event := range events {
		if _, err := q.ExecContext(ctx, insertEventQuery, insertArgs(event)...); err != nil {
			return fmt.Errorf("failed to save audit event: %w", err)
		}
	}
	return nil
}

// GetAuditEvent retrieves an audit event by ID
func (s *SQLStore) GetAuditEvent(ctx context.Context, id string) (*audit.Event, error) {
	row := s.getQuerier(ctx).QueryRowContext(ctx, selectEventColumns+"\tWHERE id = $1", id)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}
	return event, nil
}

// ListAuditEvents retrieves audit events newest first
func (s *SQLStore) ListAuditEvents(ctx context.Context, filter AuditFilter) ([]*audit.Event, error) {
	// Use pq.Array for PostgreSQL array parameter
	query, args := buildListQuery(filter, func(v []string) any { return pq.Array(v) })

	rows, err := s.getQuerier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []*audit.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}

	return events, nil
}
