package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/bsm/redislock"
)

const DateLayout = "2006-01-02"

func NewTrue() *bool {
	b := true
	return &b
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// ParseDate accepts calendar dates in YYYY-MM-DD form.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(value))
}

// ValidateDate returns a ValidationError naming field when value is not a YYYY-MM-DD date.
func ValidateDate(field string, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field, "is required")
	}
	if _, err := ParseDate(value); err != nil {
		return NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return nil
}

// ValidateDateRange checks both bounds and their order.
func ValidateDateRange(fromField, from, toField, to string) error {
	if err := ValidateDate(fromField, from); err != nil {
		return err
	}
	if err := ValidateDate(toField, to); err != nil {
		return err
	}
	if strings.TrimSpace(from) > strings.TrimSpace(to) {
		return NewValidationError(fromField, "must not be after %s", toField)
	}
	return nil
}

// DaysBack returns the inclusive date range covering the last n calendar days ending at today.
func DaysBack(today time.Time, n int) (string, string) {
	if n < 1 {
		n = 1
	}
	to := today.Format(DateLayout)
	from := today.AddDate(0, 0, -(n - 1)).Format(DateLayout)
	return from, to
}

// ObtainLock takes a short-lived redis lock. The returned release func is never nil.
// When redis is not configured the lock is skipped.
func ObtainLock(ctx context.Context, key string, ttl time.Duration, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lock, err := locker.Obtain(ctx, key, ttl, nil)
	if err == redislock.ErrNotObtained {
		return func() {}, NewConflictError("operation already running for %s", key)
	} else if err != nil {
		// proceed unlocked
		config.LogError(logger, moduleName, functionName, "Error obtaining lock", key, err)
		return func() {}, nil
	}
	return func() {
		if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil && releaseErr != redislock.ErrLockNotHeld {
			config.LogError(logger, moduleName, functionName, "Error releasing lock", key, releaseErr)
		}
	}, nil
}

func LockKey(parts ...any) string {
	s := make([]string, 0, len(parts))
	for _, p := range parts {
		s = append(s, fmt.Sprint(p))
	}
	return strings.Join(s, ":")
}
