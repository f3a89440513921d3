package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the store backends and the sweep core
var (
	// ErrNotFound indicates that a requested record does not exist
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable indicates the store could not be reached or read
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidDocument indicates a level or settings document could not be parsed
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidOptions indicates a run was configured with bad or unknown options
	ErrInvalidOptions = errors.New("invalid options")
)

// NotFoundError is returned when a record lookup by id misses
type NotFoundError struct {
	Entity Entity
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ParseError describes an input file that could not be read or decoded
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError describes a structural defect on a stored record
type ValidationError struct {
	Entity  Entity
	ID      string
	Field   string
	Message string
	Fixable bool
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Entity, e.ID, e.Field, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDocument && !e.Fixable
}

// ActionError is a single store mutation that failed during execution
type ActionError struct {
	Context string // "<kind> <entity> <id>"
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ActionError) Unwrap() error {
	return e.Err
}
