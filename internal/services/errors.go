package services

import (
	"errors"
	"fmt"
	"strings"

	"depot-backend/internal/repositories"
)

var (
	ErrNotFound            = repositories.ErrNotFound
	ErrInsufficientEmpties = errors.New("insufficient empties balance")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrPaymentsDisabled    = errors.New("online payments are not configured")
	ErrStorageDisabled     = errors.New("image storage is not configured")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountSuspended    = errors.New("account suspended")
	ErrInvalidTOTPCode     = errors.New("invalid verification code")
	ErrLastAdmin           = errors.New("cannot remove the last active admin")
)

// ValidationError collects field problems found before touching the database
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// validator accumulates problems; Err returns nil when there are none
type validator struct {
	problems []string
}

func (v *validator) check(ok bool, format string, args ...interface{}) {
	if !ok {
		v.problems = append(v.problems, fmt.Sprintf(format, args...))
	}
}

func (v *validator) Err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Problems: []string{fmt.Sprintf(format, args...)}}
}

func insufficientStock(sku string) error {
	return fmt.Errorf("%w for %s", ErrInsufficientStock, sku)
}

func transition(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}

// IsValidation reports whether err is a *ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
