package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeFetch represents a failed article fetch for an exploration request
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeContract represents malformed candidate data handed to the accumulator
	ErrorTypeContract ErrorType = "contract"
	// ErrorTypeSession represents exploration session errors
	ErrorTypeSession ErrorType = "session"
	// ErrorTypeImport represents dataset import errors
	ErrorTypeImport ErrorType = "import"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Base returns the embedded BaseError; typed errors inherit it by embedding
func (e *BaseError) Base() *BaseError {
	return e
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// Fetch Errors

// ErrFetchFailed is returned when the article source cannot produce a result
// for an exploration request. The accumulated graph is left untouched.
type ErrFetchFailed struct {
	*BaseError
	Request string
}

func NewFetchFailed(request string, err error) *ErrFetchFailed {
	return &ErrFetchFailed{
		BaseError: NewBaseError(ErrorTypeFetch, fmt.Sprintf("fetch failed: %s", request), err),
		Request:   request,
	}
}

// Contract Errors

// ErrContractViolation is returned when a candidate partial graph is malformed
// (empty id, unknown kind, dangling edge).
type ErrContractViolation struct {
	*BaseError
	Reason string
}

func NewContractViolation(reason string) *ErrContractViolation {
	return &ErrContractViolation{
		BaseError: NewBaseError(ErrorTypeContract, fmt.Sprintf("malformed candidate graph: %s", reason), nil),
		Reason:    reason,
	}
}

// Session Errors

// ErrSessionNotFound is returned when an exploration session does not exist or has expired
type ErrSessionNotFound struct {
	*BaseError
	SessionID string
}

func NewSessionNotFound(sessionID string) *ErrSessionNotFound {
	return &ErrSessionNotFound{
		BaseError: NewBaseError(ErrorTypeSession, fmt.Sprintf("session not found: %s", sessionID), nil),
		SessionID: sessionID,
	}
}

// Import Errors

// ErrImportFailed is returned when a page of the dataset cannot be imported
type ErrImportFailed struct {
	*BaseError
	Source string
	Page   int
}

func NewImportFailed(source string, page int, err error) *ErrImportFailed {
	return &ErrImportFailed{
		BaseError: NewBaseError(ErrorTypeImport, fmt.Sprintf("failed to import page %d from %s", page, source), err),
		Source:    source,
		Page:      page,
	}
}

// Context Errors

// ErrContextTimeout is returned when context times out
type ErrContextTimeout struct {
	*BaseError
	Operation string
	Timeout   time.Duration
}

func NewContextTimeout(operation string, timeout time.Duration) *ErrContextTimeout {
	return &ErrContextTimeout{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context timeout: %s (timeout: %v)", operation, timeout), nil),
		Operation: operation,
		Timeout:   timeout,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error, or any error it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	var typed interface{ Base() *BaseError }
	if errors.As(err, &typed) {
		base := typed.Base()
		if base.Type == errType {
			return true
		}
		return IsErrorType(base.Err, errType)
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	// A malformed candidate stays malformed on retry
	if IsErrorType(err, ErrorTypeContract) {
		return false
	}
	// Graph connection and fetch errors are transient
	if IsErrorType(err, ErrorTypeGraph) || IsErrorType(err, ErrorTypeFetch) {
		return true
	}
	return false
}
