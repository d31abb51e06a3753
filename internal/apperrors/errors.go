// Package apperrors defines the error kinds the domain services raise.
//
// Services never return raw storage errors for conditions a caller can act
// on: lookups that miss produce NotFoundError, precondition violations
// detected before a write produce ValidationError, uniqueness violations
// detected at commit time produce ConflictError, and ownership failures
// produce AuthorizationError. HTTP controllers translate each kind to a
// transport status.
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// NotFoundError indicates a referenced entity does not exist.
// For bulk operations MissingIDs carries every ID that failed to resolve.
type NotFoundError struct {
	Resource   string
	ID         uint
	MissingIDs []uint
}

func (e *NotFoundError) Error() string {
	if len(e.MissingIDs) > 0 {
		ids := make([]string, len(e.MissingIDs))
		for i, id := range e.MissingIDs {
			ids[i] = fmt.Sprintf("%d", id)
		}
		return fmt.Sprintf("%ss not found with ids: [%s]", e.Resource, strings.Join(ids, ", "))
	}
	return fmt.Sprintf("%s not found with id: %d", e.Resource, e.ID)
}

// ValidationError indicates the input violates a field constraint or a
// uniqueness precondition detected before the conflicting write.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError indicates a uniqueness or precondition violation only
// detected at commit time, or a duplicate-review condition.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// AuthorizationError indicates the caller lacks the ownership or role the
// operation requires.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

func NotFound(resource string, id uint) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func NotFoundMany(resource string, ids []uint) error {
	return &NotFoundError{Resource: resource, MissingIDs: ids}
}

func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

func Authorization(format string, args ...any) error {
	return &AuthorizationError{Msg: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsAuthorization(err error) bool {
	var e *AuthorizationError
	return errors.As(err, &e)
}

// MissingIDs extracts the bulk missing-ID payload from a NotFoundError,
// or nil when err is not one.
func MissingIDs(err error) []uint {
	var e *NotFoundError
	if errors.As(err, &e) {
		return e.MissingIDs
	}
	return nil
}

// FromDB translates a storage error into the matching error kind.
// Record-not-found becomes NotFoundError for the given resource; a unique
// constraint that slipped past the service-level pre-check (two requests
// racing) becomes ConflictError, so callers see the same kind either way.
func FromDB(err error, resource string, id uint) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(resource, id)
	}
	if IsUniqueViolation(err) {
		return Conflict("%s violates a uniqueness constraint", resource)
	}
	return fmt.Errorf("%s storage error: %w", resource, err)
}

// IsUniqueViolation reports whether err is a sqlite unique-constraint
// failure surfaced through gorm.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
