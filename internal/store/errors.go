package store

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Error taxonomy returned by the store. Callers match with errors.Is; the
// wrapped message carries the detail shown to clients.
var (
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrAlreadyAllocated = fmt.Errorf("%w: student already has a room", ErrConflict)
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("room full")
	ErrStoreUnavailable = errors.New("store unavailable")
)

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func isUnavailable(err error) bool {
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		strings.Contains(err.Error(), "connection refused")
}

// translateError maps driver and gorm errors onto the store taxonomy.
// subject names the row involved, e.g. "room 12".
func translateError(err error, subject string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, subject)
	case isDuplicate(err):
		return fmt.Errorf("%w: %s already exists", ErrConflict, subject)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %s references a missing record", ErrNotFound, subject)
	case isUnavailable(err):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", subject, err)
}
