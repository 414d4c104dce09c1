// Package errors defines the journal's sentinel and typed errors.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrInvalidTradeData   = errors.New("invalid trade data")
	ErrNilTradeList       = errors.New("trade list is nil")
	ErrTradeNotFound      = errors.New("trade not found")
	ErrTradeAlreadyClosed = errors.New("trade already closed")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrDatabaseError      = errors.New("database error")
	ErrImportFormat       = errors.New("unsupported import format")
	ErrPublishFailed      = errors.New("event publish failed")
)

// ValidationError represents a rejected field of an incoming trade record.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets callers match every validation failure with ErrInvalidTradeData.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidTradeData
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a persistence-related error.
type DataError struct {
	Operation string
	TradeID   int64
	Message   string
	Err       error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] trade=%d: %s: %v", e.Operation, e.TradeID, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] trade=%d: %s", e.Operation, e.TradeID, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(operation string, tradeID int64, message string, err error) *DataError {
	return &DataError{
		Operation: operation,
		TradeID:   tradeID,
		Message:   message,
		Err:       err,
	}
}

// ImportError represents a failure to parse one row of an import file.
type ImportError struct {
	Source string
	Line   int
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import error [%s] line %d: %s: %v", e.Source, e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("import error [%s] line %d: %s", e.Source, e.Line, e.Reason)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// NewImportError creates a new ImportError.
func NewImportError(source string, line int, reason string, err error) *ImportError {
	return &ImportError{
		Source: source,
		Line:   line,
		Reason: reason,
		Err:    err,
	}
}

// Wrap prefixes err with message, keeping it matchable with Is.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
