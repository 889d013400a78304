// Package repository persists users, claims, analysis results and comments
// with sqlx over SQLite or PostgreSQL.
package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DBTX is implemented by *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

var (
	_ DBTX = (*sqlx.DB)(nil)
	_ DBTX = (*sqlx.Tx)(nil)
)

// Store bundles the repositories over one connection or one transaction.
type Store struct {
	db *sqlx.DB
	q  DBTX
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Users() UserRepository {
	return &userRepository{db: s.q}
}

func (s *Store) Claims() ClaimRepository {
	return &claimRepository{db: s.q}
}

func (s *Store) Analyses() AnalysisRepository {
	return &analysisRepository{db: s.q}
}

func (s *Store) Comments() CommentRepository {
	return &commentRepository{db: s.q}
}

// InTx runs fn against a Store bound to a single transaction.
// Calls made on a Store that is already inside a transaction reuse it.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if _, ok := s.q.(*sqlx.Tx); ok {
		return fn(s)
	}

	_, err := WithTx(ctx, s.db, func(tx *sqlx.Tx) (struct{}, error) {
		return struct{}{}, fn(&Store{db: s.db, q: tx})
	})
	return err
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx executes fn within a database transaction.
// It commits when fn succeeds and rolls back otherwise.
func WithTx[T any](ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin transaction: %w", err)
	}

	// No-op after a successful commit
	defer func() { _ = tx.Rollback() }()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit transaction: %w", err)
	}

	return result, nil
}
