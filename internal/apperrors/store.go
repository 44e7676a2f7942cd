package apperrors

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// FromStore classifies an error returned by gorm. AppErrors pass through unchanged.
func FromStore(err error, notFoundMessage string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError(notFoundMessage)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &AppError{Type: ErrorTypeConflict, Message: "record already exists", Err: err}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return &AppError{Type: ErrorTypeConflict, Message: "record already exists", Err: err}
		case 1205, 1213:
			return NewPersistenceError("write conflict, retry the request", err)
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &AppError{Type: ErrorTypeConflict, Message: "record already exists", Err: err}
		case "40001", "40P01":
			return NewPersistenceError("write conflict, retry the request", err)
		}
	}

	return NewPersistenceError("database operation failed", err)
}
