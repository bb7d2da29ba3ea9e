package utils

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestTranslateDBError(t *testing.T) {
	if TranslateDBError("op", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
	if err := TranslateDBError("op", gorm.ErrRecordNotFound); !errors.Is(err, ErrorRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
	if err := TranslateDBError("op", gorm.ErrDuplicatedKey); !IsConflictError(err) {
		t.Fatalf("expected conflict for duplicated key, got %v", err)
	}
	if err := TranslateDBError("op", errors.New("UNIQUE constraint failed: warehouses.id")); !IsConflictError(err) {
		t.Fatalf("expected conflict from the driver message, got %v", err)
	}

	validation := NewValidationError("fecha", "is required")
	if err := TranslateDBError("op", validation); err != validation {
		t.Fatalf("validation errors must pass through, got %v", err)
	}

	cause := errors.New("connection reset")
	err := TranslateDBError("save counts", cause)
	if !IsPersistenceError(err) || !errors.Is(err, cause) {
		t.Fatalf("expected a persistence error wrapping the cause, got %v", err)
	}
	if err.Error() != "persistence failure during save counts" {
		t.Fatalf("persistence errors must not leak the cause, got %q", err.Error())
	}
}

func TestValidateDateRange(t *testing.T) {
	cases := []struct {
		from, to string
		wantErr  bool
	}{
		{"2024-01-01", "2024-01-31", false},
		{"2024-01-31", "2024-01-31", false},
		{"2024-02-01", "2024-01-31", true},
		{"", "2024-01-31", true},
		{"2024-01-01", "31-01-2024", true},
	}
	for _, tc := range cases {
		err := ValidateDateRange("desde", tc.from, "hasta", tc.to)
		if (err != nil) != tc.wantErr {
			t.Fatalf("(%q, %q): expected error=%v, got %v", tc.from, tc.to, tc.wantErr, err)
		}
		if err != nil && !IsValidationError(err) {
			t.Fatalf("(%q, %q): expected a validation error, got %T", tc.from, tc.to, err)
		}
	}
}

func TestDaysBack(t *testing.T) {
	today := time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)
	cases := []struct {
		days     int
		from, to string
	}{
		{1, "2024-03-02", "2024-03-02"},
		{3, "2024-02-29", "2024-03-02"},
		{0, "2024-03-02", "2024-03-02"},
	}
	for _, tc := range cases {
		from, to := DaysBack(today, tc.days)
		if from != tc.from || to != tc.to {
			t.Fatalf("DaysBack(%d): expected %s..%s, got %s..%s", tc.days, tc.from, tc.to, from, to)
		}
	}
}

func TestUniqueSlice(t *testing.T) {
	got := fmt.Sprint(UniqueSlice([]string{"b", "a", "b", "c", "a"}))
	if got != "[b a c]" {
		t.Fatalf("expected first-seen order [b a c], got %s", got)
	}
}
