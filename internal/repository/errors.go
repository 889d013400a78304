package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgDuplicateKeyCode = "23505"

// MapError translates driver errors to repository errors.
// sql.ErrNoRows becomes notFoundErr and a unique violation on either
// PostgreSQL or SQLite becomes duplicateErr. Other errors pass through.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if notFoundErr != nil && errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	if duplicateErr != nil && isUniqueViolation(err) {
		return duplicateErr
	}

	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDuplicateKeyCode
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	// Fallback for wrapped driver errors that lost their type
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value")
}

// expectOne turns a zero-row result into sql.ErrNoRows.
func expectOne(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
