package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNumericOutOfRange   = "22003"
)

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return hasPGCode(err, pgUniqueViolation) ||
		containsAny(err.Error(), "duplicate key value", "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err was raised by a foreign key check.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return hasPGCode(err, pgForeignKeyViolation) ||
		containsAny(err.Error(), "violates foreign key constraint", "FOREIGN KEY constraint failed")
}

// IsCheckViolation reports whether err was raised by a CHECK constraint.
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	return hasPGCode(err, pgCheckViolation) ||
		containsAny(err.Error(), "violates check constraint", "CHECK constraint failed")
}

// IsNumericOutOfRange reports whether a value overflowed its column type,
// e.g. a quantity above int4 or a price beyond NUMERIC(12,2).
func IsNumericOutOfRange(err error) bool {
	if err == nil {
		return false
	}
	return hasPGCode(err, pgNumericOutOfRange) ||
		containsAny(err.Error(), "out of range for type", "numeric field overflow")
}

// IsConstraintViolation groups the integrity errors a row-level writer can recover from.
func IsConstraintViolation(err error) bool {
	return IsUniqueViolation(err) || IsForeignKeyViolation(err) || IsCheckViolation(err)
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func containsAny(msg string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
