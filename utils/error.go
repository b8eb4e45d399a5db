package utils

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorInsufficientStock aborts a sale when the permitted batches cannot cover
// the requested quantity. Callers must not retry it.
var ErrorInsufficientStock = errors.New("insufficient stock")

// ValidationError is a caller mistake (bad request shape or amounts); it maps
// to a 4xx response and is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field string, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRetryableTxError reports whether err is a benign concurrency conflict
// (MySQL deadlock 1213 or lock wait timeout 1205) worth retrying in a fresh
// transaction.
func IsRetryableTxError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}
