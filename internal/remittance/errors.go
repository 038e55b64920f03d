package remittance

import (
	"errors"
	"fmt"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/host"
)

// ErrorCode categorizes rejected calls.
type ErrorCode string

const (
	// ErrCodeInvalidAmount indicates a non-positive or non-integer amount.
	ErrCodeInvalidAmount ErrorCode = "INVALID_AMOUNT"

	// ErrCodeInvalidArgument indicates a malformed address or currency.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeNotFound indicates no remittance exists under the id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeAlreadyProcessed indicates the remittance is no longer PENDING.
	ErrCodeAlreadyProcessed ErrorCode = "ALREADY_PROCESSED"

	// ErrCodeUnauthorized indicates the caller may not act as the identity.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeCounterExhausted indicates every uint64 id has been issued.
	ErrCodeCounterExhausted ErrorCode = "COUNTER_EXHAUSTED"
)

// Error is a rejected contract call. State is unchanged when it is returned.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// TxID identifies the affected remittance, 0 when none.
	TxID uint64

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.TxID != 0 {
		return fmt.Sprintf("%s: %s (tx=%d)", e.Code, e.Message, e.TxID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the ErrorCode of err, or "" if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsValidation returns true for INVALID_AMOUNT and INVALID_ARGUMENT errors.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeInvalidAmount || code == ErrCodeInvalidArgument
}

// IsNotFound returns true if the remittance does not exist.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsConflict returns true if the remittance was already processed.
func IsConflict(err error) bool {
	return CodeOf(err) == ErrCodeAlreadyProcessed
}

// IsUnauthorized returns true for authorization failures, whether reported
// by the contract or directly by a host.Authorizer.
func IsUnauthorized(err error) bool {
	return CodeOf(err) == ErrCodeUnauthorized || errors.Is(err, host.ErrUnauthorized)
}

func newInvalidAmountError(cause error) *Error {
	return &Error{Code: ErrCodeInvalidAmount, Message: "invalid amount", Err: cause}
}

func newInvalidArgumentError(field string, cause error) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf("invalid %s: %v", field, cause),
		Err:     cause,
	}
}

func newNotFoundError(id uint64) *Error {
	return &Error{Code: ErrCodeNotFound, Message: "transaction not found", TxID: id}
}

func newAlreadyProcessedError(id uint64) *Error {
	return &Error{Code: ErrCodeAlreadyProcessed, Message: "transaction already processed", TxID: id}
}

func newUnauthorizedError(cause error) *Error {
	return &Error{Code: ErrCodeUnauthorized, Message: cause.Error(), Err: cause}
}

func newCounterExhaustedError() *Error {
	return &Error{Code: ErrCodeCounterExhausted, Message: "transaction counter exhausted"}
}
