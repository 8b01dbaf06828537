package database

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   uint   `gorm:"primarykey"`
	Code string `gorm:"uniqueIndex"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestIsUniqueViolation(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Create(&widget{Code: "abc"}).Error; err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := db.Create(&widget{Code: "abc"}).Error
	if err == nil {
		t.Fatal("duplicate insert should fail")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got: %v", err)
	}

	if IsUniqueViolation(nil) {
		t.Error("nil is not a unique violation")
	}
	if IsUniqueViolation(errors.New("connection reset")) {
		t.Error("arbitrary errors are not unique violations")
	}
}

func TestTransactionRollsBack(t *testing.T) {
	db := setupTestDB(t)

	wantErr := errors.New("boom")
	err := Transaction(db, func(tx *gorm.DB) error {
		if err := tx.Create(&widget{Code: "rollback"}).Error; err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected boom, got: %v", err)
	}

	var count int64
	db.Model(&widget{}).Count(&count)
	if count != 0 {
		t.Errorf("insert should have rolled back, found %d rows", count)
	}
}

func TestTransactionRetryOnUniqueRetriesBoundedly(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Create(&widget{Code: "taken"}).Error; err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	attempts := 0
	err := TransactionRetryOnUnique(db, func(tx *gorm.DB) error {
		attempts++
		return tx.Create(&widget{Code: "taken"}).Error
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("expected the unique violation to propagate, got: %v", err)
	}
	if attempts != NumTries {
		t.Errorf("expected %d attempts, got %d", NumTries, attempts)
	}
}

func TestTransactionRetryOnUniqueStopsOnOtherErrors(t *testing.T) {
	db := setupTestDB(t)

	attempts := 0
	wantErr := errors.New("disk on fire")
	err := TransactionRetryOnUnique(db, func(tx *gorm.DB) error {
		attempts++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the error to propagate, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("non-unique errors must not be retried, got %d attempts", attempts)
	}
}

func TestTransactionRetryOnUniqueSucceedsAfterRetry(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Create(&widget{Code: "first"}).Error; err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	attempts := 0
	err := TransactionRetryOnUnique(db, func(tx *gorm.DB) error {
		attempts++
		code := "first"
		if attempts > 1 {
			code = "second"
		}
		return tx.Create(&widget{Code: code}).Error
	})
	if err != nil {
		t.Fatalf("expected success on retry, got: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}
