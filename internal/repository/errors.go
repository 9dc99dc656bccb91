package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"net/url"
	"strings"

	"jobtracker/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// classify turns a driver, transport or PostgREST error into an AppError
// tagged with the failing operation.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		if appErr.Op == "" {
			return appErr.WithOp(op)
		}
		return appErr
	}

	return kindOf(err).WithOp(op)
}

func kindOf(err error) *models.AppError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.NewBackendError(err)
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return models.NewBackendError(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromSQLState(pgErr.Code, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return models.NewConflictError("Record already exists", err)
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey:
			return models.NewConstraintError("Referenced record does not exist", err)
		case sqliteErr.Code == sqlite3.ErrConstraint:
			return models.NewConstraintError("Constraint violation", err)
		case sqliteErr.Code == sqlite3.ErrBusy,
			sqliteErr.Code == sqlite3.ErrLocked,
			sqliteErr.Code == sqlite3.ErrCantOpen,
			sqliteErr.Code == sqlite3.ErrReadonly:
			return models.NewBackendError(err)
		}
		return models.NewInternalError(err)
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return models.NewBackendError(err)
	}

	// PostgREST reports the SQLSTATE inside the message text.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "23505"), strings.Contains(msg, "UNIQUE constraint failed"):
		return models.NewConflictError("Record already exists", err)
	case strings.Contains(msg, "23503"), strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return models.NewConstraintError("Referenced record does not exist", err)
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return models.NewBackendError(err)
	}

	return models.NewInternalError(err)
}

func fromSQLState(code string, err error) *models.AppError {
	switch {
	case code == "23505":
		return models.NewConflictError("Record already exists", err)
	case code == "23503":
		return models.NewConstraintError("Referenced record does not exist", err)
	case strings.HasPrefix(code, "23"):
		return models.NewConstraintError("Constraint violation", err)
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "57P"):
		return models.NewBackendError(err)
	}
	return models.NewInternalError(err)
}
