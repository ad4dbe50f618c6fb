package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateKeyError reports unique constraint violations from postgres or sqlite.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
