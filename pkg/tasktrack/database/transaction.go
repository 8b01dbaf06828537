package database

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	// NumTries is the number of attempts for a retryable transaction
	NumTries = 3
	// RetryAfter is the pause between attempts, to reduce contention
	RetryAfter = 100 * time.Millisecond
)

// IsUniqueViolation reports whether err is a unique-constraint failure
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToUpper(err.Error()), "UNIQUE")
}

// Transaction runs fn inside a database transaction
func Transaction(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.Transaction(fn)
}

// TransactionRetryOnUnique runs fn inside a transaction, retrying a
// bounded number of times when the failure is a unique-constraint race.
// Any other error propagates immediately.
func TransactionRetryOnUnique(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= NumTries; attempt++ {
		err = db.Transaction(fn)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
		if attempt < NumTries {
			time.Sleep(RetryAfter)
		}
	}
	return err
}
