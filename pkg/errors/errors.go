// Package errors provides structured error handling for brewbar.
// It defines the closed set of error kinds the storefront reports, the exit
// codes they map to, and helpers for adding context and suggestions.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess     = 0 // Successful execution
	ExitGeneral     = 1 // General/unknown error, provider errors
	ExitInput       = 2 // Invalid input or out-of-range index
	ExitRejected    = 3 // User rejected the request in the wallet
	ExitNotFound    = 4 // Resource not found
	ExitUnavailable = 5 // No wallet provider reachable
)

// BrewError is the structured error type for brewbar.
type BrewError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *BrewError) Error() string {
	msg := e.Message

	// Details are sorted for deterministic output
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *BrewError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for BrewError. Two BrewErrors match when their codes match.
func (e *BrewError) Is(target error) bool {
	var t *BrewError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &BrewError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &BrewError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &BrewError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	// Provider errors.
	ErrProviderUnavailable = &BrewError{
		Code:       "PROVIDER_UNAVAILABLE",
		Message:    "no wallet provider available",
		Suggestion: "start your wallet (or a dev node) and set provider.url in the config",
		ExitCode:   ExitUnavailable,
	}

	ErrUserRejected = &BrewError{
		Code:     "USER_REJECTED",
		Message:  "request rejected in wallet",
		ExitCode: ExitRejected,
	}

	ErrUnauthorized = &BrewError{
		Code:       "UNAUTHORIZED",
		Message:    "account not authorized by wallet",
		Suggestion: "connect the wallet first",
		ExitCode:   ExitRejected,
	}

	ErrProviderError = &BrewError{
		Code:     "PROVIDER_ERROR",
		Message:  "wallet provider request failed",
		ExitCode: ExitGeneral,
	}

	ErrTimeout = &BrewError{
		Code:     "TIMEOUT",
		Message:  "operation timed out",
		ExitCode: ExitGeneral,
	}

	// Session errors.
	ErrNotConnected = &BrewError{
		Code:       "NOT_CONNECTED",
		Message:    "wallet not connected",
		Suggestion: "run 'connect' first",
		ExitCode:   ExitInput,
	}

	ErrBusy = &BrewError{
		Code:     "BUSY",
		Message:  "another action is still in progress",
		ExitCode: ExitGeneral,
	}

	// Registry errors.
	ErrIndexOutOfRange = &BrewError{
		Code:       "INDEX_OUT_OF_RANGE",
		Message:    "storage index does not exist",
		Suggestion: "create a storage contract first",
		ExitCode:   ExitInput,
	}

	ErrTxReverted = &BrewError{
		Code:     "TX_REVERTED",
		Message:  "transaction reverted",
		ExitCode: ExitGeneral,
	}

	ErrProbeFailed = &BrewError{
		Code:     "PROBE_FAILED",
		Message:  "registry probe read failed",
		ExitCode: ExitGeneral,
	}

	// Chain-specific errors.
	ErrInvalidAddress = &BrewError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrInvalidAmount = &BrewError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	// Catalog errors.
	ErrItemNotFound = &BrewError{
		Code:       "ITEM_NOT_FOUND",
		Message:    "menu item not found",
		Suggestion: "run 'brewbar menu' to list items",
		ExitCode:   ExitNotFound,
	}

	// Config-specific errors.
	ErrConfigNotFound = &BrewError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &BrewError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}
)

// New creates a new BrewError with the given code and message.
func New(code, message string) *BrewError {
	return &BrewError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var se *BrewError
	if errors.As(err, &se) {
		return &BrewError{
			Code:       se.Code,
			Message:    fmt.Sprintf("%s: %s", msg, se.Message),
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      err,
			ExitCode:   se.ExitCode,
		}
	}

	return &BrewError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithMessage returns a copy of the error with the message replaced.
// The provider boundary uses this to pass wallet messages through verbatim.
func WithMessage(err error, message string) error {
	if err == nil {
		return nil
	}

	var se *BrewError
	if errors.As(err, &se) {
		return &BrewError{
			Code:       se.Code,
			Message:    message,
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &BrewError{
		Code:     "GENERAL_ERROR",
		Message:  message,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause returns a copy of the error with the underlying cause set.
func WithCause(err, cause error) error {
	if err == nil {
		return nil
	}

	var se *BrewError
	if errors.As(err, &se) {
		return &BrewError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      cause,
			ExitCode:   se.ExitCode,
		}
	}

	return err
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var se *BrewError
	if errors.As(err, &se) {
		return &BrewError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &BrewError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var se *BrewError
	if errors.As(err, &se) {
		return &BrewError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    se.Details,
			Suggestion: suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &BrewError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var se *BrewError
	if errors.As(err, &se) {
		return se.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var se *BrewError
	if errors.As(err, &se) {
		return se.Code
	}
	return "GENERAL_ERROR"
}

// Message returns the human-readable message of the outermost BrewError,
// or err.Error() for other errors.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *BrewError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
