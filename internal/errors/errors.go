// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidCandle    = errors.New("invalid candle")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDataNotFound     = errors.New("data not found")
	ErrDatabaseError    = errors.New("database error")
	ErrUnsupportedInput = errors.New("unsupported input format")
)

// ValidationError reports a malformed candle or setting.
// Index is the offending candle index, or -1 when the error is not tied to a candle.
type ValidationError struct {
	Index   int
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("validation error at candle %d: %s (%v): %s", e.Index, e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets callers match candle failures with errors.Is(err, ErrInvalidCandle).
func (e *ValidationError) Unwrap() error {
	if e.Index >= 0 {
		return ErrInvalidCandle
	}
	return ErrConfigInvalid
}

// NewValidationError creates a ValidationError that is not tied to a candle.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Index:   -1,
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewCandleError creates a ValidationError for the candle at index.
func NewCandleError(index int, field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Index:   index,
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
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
