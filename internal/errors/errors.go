// Package errors defines the error taxonomy surfaced by the soflotto ledger engine.
//
// Every failure that aborts an instruction is a *LedgerError carrying a stable
// string code and the numeric custom error code a client sees on chain
// (6000 + ordinal, following the anchor convention). Two LedgerErrors match
// under errors.Is when their codes are equal, so callers compare against the
// pre-defined sentinels regardless of the message or details attached.
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Error codes for the ledger engine.
const (
	ErrCodeNotInitialized          = "NOT_INITIALIZED"
	ErrCodeUnauthorized            = "UNAUTHORIZED"
	ErrCodeInvalidEntryTier        = "INVALID_ENTRY_TIER"
	ErrCodeAlreadyInitialized      = "ALREADY_INITIALIZED"
	ErrCodeInsufficientFunds       = "INSUFFICIENT_FUNDS"
	ErrCodeEmergencyPaused         = "EMERGENCY_PAUSED"
	ErrCodeInvalidPercentageSplit  = "INVALID_PERCENTAGE_SPLIT"
	ErrCodeNoEligibleEntries       = "NO_ELIGIBLE_ENTRIES"
	ErrCodePoolAlreadyBootstrapped = "POOL_ALREADY_BOOTSTRAPPED"
	ErrCodeInvalidAmount           = "INVALID_AMOUNT"
	ErrCodeInvalidTaxRate          = "INVALID_TAX_RATE"
	ErrCodeArithmeticOverflow      = "ARITHMETIC_OVERFLOW"
	ErrCodeMissingAccount          = "MISSING_ACCOUNT"
	ErrCodeMissingSigner           = "MISSING_SIGNER"
	ErrCodeAccountNotWritable      = "ACCOUNT_NOT_WRITABLE"
	ErrCodeInvalidDerivedAddress   = "INVALID_DERIVED_ADDRESS"
	ErrCodeInvalidAccountData      = "INVALID_ACCOUNT_DATA"
	ErrCodeInvalidProgramID        = "INVALID_PROGRAM_ID"
	ErrCodeUnknownInstruction      = "UNKNOWN_INSTRUCTION"
	ErrCodeAdminSetFull            = "ADMIN_SET_FULL"
	ErrCodeAdminAlreadyExists      = "ADMIN_ALREADY_EXISTS"
	ErrCodeAdminNotFound           = "ADMIN_NOT_FOUND"
	ErrCodeCannotRemoveMaster      = "CANNOT_REMOVE_MASTER"
	ErrCodePoolRenounced           = "POOL_RENOUNCED"
	ErrCodePoolsNotBootstrapped    = "POOLS_NOT_BOOTSTRAPPED"
	ErrCodeDrawInProgress          = "DRAW_IN_PROGRESS"
	ErrCodeDrawNotCommitted        = "DRAW_NOT_COMMITTED"
	ErrCodeRandomnessMismatch      = "RANDOMNESS_MISMATCH"
	ErrCodeRevealTooEarly          = "REVEAL_TOO_EARLY"
	ErrCodeInvalidParticipantSet   = "INVALID_PARTICIPANT_SET"
	ErrCodeInvalidSignature        = "INVALID_SIGNATURE"
	ErrCodeDecodeFailed            = "DECODE_FAILED"
	ErrCodeCustom                  = "CUSTOM"
	ErrCodeRevealExpired           = "REVEAL_EXPIRED"
)

// CustomErrorOffset is the first numeric code assigned to program errors.
const CustomErrorOffset = 6000

// ordinals keeps the numeric error codes stable. Append only.
var ordinals = map[string]uint32{
	ErrCodeNotInitialized:          0,
	ErrCodeUnauthorized:            1,
	ErrCodeInvalidEntryTier:        2,
	ErrCodeAlreadyInitialized:      3,
	ErrCodeInsufficientFunds:       4,
	ErrCodeEmergencyPaused:         5,
	ErrCodeInvalidPercentageSplit:  6,
	ErrCodeNoEligibleEntries:       7,
	ErrCodePoolAlreadyBootstrapped: 8,
	ErrCodeInvalidAmount:           9,
	ErrCodeInvalidTaxRate:          10,
	ErrCodeArithmeticOverflow:      11,
	ErrCodeMissingAccount:          12,
	ErrCodeMissingSigner:           13,
	ErrCodeAccountNotWritable:      14,
	ErrCodeInvalidDerivedAddress:   15,
	ErrCodeInvalidAccountData:      16,
	ErrCodeInvalidProgramID:        17,
	ErrCodeUnknownInstruction:      18,
	ErrCodeAdminSetFull:            19,
	ErrCodeAdminAlreadyExists:      20,
	ErrCodeAdminNotFound:           21,
	ErrCodeCannotRemoveMaster:      22,
	ErrCodePoolRenounced:           23,
	ErrCodePoolsNotBootstrapped:    24,
	ErrCodeDrawInProgress:          25,
	ErrCodeDrawNotCommitted:        26,
	ErrCodeRandomnessMismatch:      27,
	ErrCodeRevealTooEarly:          28,
	ErrCodeInvalidParticipantSet:   29,
	ErrCodeInvalidSignature:        30,
	ErrCodeDecodeFailed:            31,
	ErrCodeCustom:                  32,
	ErrCodeRevealExpired:           33,
}

// LedgerError represents a failed instruction.
type LedgerError struct {
	// Code is a unique error code for this error type.
	Code string

	// Message is a human-readable error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Details contains additional error context.
	Details map[string]any
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *LedgerError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches the target.
func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Number returns the numeric custom error code.
func (e *LedgerError) Number() uint32 {
	return CustomErrorOffset + ordinals[e.Code]
}

// WithCause returns a copy of the error with the given cause.
// Sentinels are shared, so they are never mutated in place.
func (e *LedgerError) WithCause(cause error) *LedgerError {
	c := *e
	c.Cause = cause
	return &c
}

// WithDetails returns a copy of the error with the given details.
func (e *LedgerError) WithDetails(details map[string]any) *LedgerError {
	c := *e
	c.Details = details
	return &c
}

// NewError creates a new LedgerError.
func NewError(code, message string) *LedgerError {
	return &LedgerError{
		Code:    code,
		Message: message,
	}
}

// Pre-defined errors for every failure the engine surfaces.
var (
	ErrNotInitialized          = NewError(ErrCodeNotInitialized, "program state not initialized")
	ErrUnauthorized            = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidEntryTier        = NewError(ErrCodeInvalidEntryTier, "invalid entry tier - must be 1, 2, 4, or 8 and backed by holdings")
	ErrAlreadyInitialized      = NewError(ErrCodeAlreadyInitialized, "account already initialized")
	ErrInsufficientFunds       = NewError(ErrCodeInsufficientFunds, "insufficient funds")
	ErrEmergencyPaused         = NewError(ErrCodeEmergencyPaused, "emergency pause is active")
	ErrInvalidPercentageSplit  = NewError(ErrCodeInvalidPercentageSplit, "lp split must sum to 10000 bps")
	ErrNoEligibleEntries       = NewError(ErrCodeNoEligibleEntries, "no eligible lottery entries")
	ErrPoolAlreadyBootstrapped = NewError(ErrCodePoolAlreadyBootstrapped, "liquidity pools already bootstrapped")
	ErrInvalidAmount           = NewError(ErrCodeInvalidAmount, "amount must be greater than zero")
	ErrInvalidTaxRate          = NewError(ErrCodeInvalidTaxRate, "tax rate out of bounds")
	ErrArithmeticOverflow      = NewError(ErrCodeArithmeticOverflow, "arithmetic overflow")
	ErrMissingAccount          = NewError(ErrCodeMissingAccount, "missing required account")
	ErrMissingSigner           = NewError(ErrCodeMissingSigner, "missing required signature")
	ErrAccountNotWritable      = NewError(ErrCodeAccountNotWritable, "account must be writable")
	ErrInvalidDerivedAddress   = NewError(ErrCodeInvalidDerivedAddress, "account does not match derived address")
	ErrInvalidAccountData      = NewError(ErrCodeInvalidAccountData, "invalid account data")
	ErrInvalidProgramID        = NewError(ErrCodeInvalidProgramID, "unexpected program id")
	ErrUnknownInstruction      = NewError(ErrCodeUnknownInstruction, "unknown instruction discriminator")
	ErrAdminSetFull            = NewError(ErrCodeAdminSetFull, "admin set is full")
	ErrAdminAlreadyExists      = NewError(ErrCodeAdminAlreadyExists, "admin already registered")
	ErrAdminNotFound           = NewError(ErrCodeAdminNotFound, "admin not registered")
	ErrCannotRemoveMaster      = NewError(ErrCodeCannotRemoveMaster, "master admin cannot be removed")
	ErrPoolRenounced           = NewError(ErrCodePoolRenounced, "pool is renounced")
	ErrPoolsNotBootstrapped    = NewError(ErrCodePoolsNotBootstrapped, "liquidity pools not bootstrapped")
	ErrDrawInProgress          = NewError(ErrCodeDrawInProgress, "a draw is already in progress for this round")
	ErrDrawNotCommitted        = NewError(ErrCodeDrawNotCommitted, "no draw commitment for this round")
	ErrRandomnessMismatch      = NewError(ErrCodeRandomnessMismatch, "revealed seed does not match commitment")
	ErrRevealTooEarly          = NewError(ErrCodeRevealTooEarly, "reveal must wait for the target slot")
	ErrRevealExpired           = NewError(ErrCodeRevealExpired, "reveal window has closed, cancel the draw")
	ErrInvalidParticipantSet   = NewError(ErrCodeInvalidParticipantSet, "participant accounts do not cover the round")
	ErrInvalidSignature        = NewError(ErrCodeInvalidSignature, "transaction signature verification failed")
	ErrDecodeFailed            = NewError(ErrCodeDecodeFailed, "failed to decode")
)

// All returns the pre-defined errors ordered by numeric code.
func All() []*LedgerError {
	out := []*LedgerError{
		ErrNotInitialized, ErrUnauthorized, ErrInvalidEntryTier, ErrAlreadyInitialized,
		ErrInsufficientFunds, ErrEmergencyPaused, ErrInvalidPercentageSplit, ErrNoEligibleEntries,
		ErrPoolAlreadyBootstrapped, ErrInvalidAmount, ErrInvalidTaxRate, ErrArithmeticOverflow,
		ErrMissingAccount, ErrMissingSigner, ErrAccountNotWritable, ErrInvalidDerivedAddress,
		ErrInvalidAccountData, ErrInvalidProgramID, ErrUnknownInstruction, ErrAdminSetFull,
		ErrAdminAlreadyExists, ErrAdminNotFound, ErrCannotRemoveMaster, ErrPoolRenounced,
		ErrPoolsNotBootstrapped, ErrDrawInProgress, ErrDrawNotCommitted, ErrRandomnessMismatch,
		ErrRevealTooEarly, ErrInvalidParticipantSet, ErrInvalidSignature, ErrDecodeFailed,
		ErrRevealExpired,
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number() < out[j].Number() })
	return out
}

// DecodeFailed creates an error for decoding failures.
func DecodeFailed(what string, cause error) *LedgerError {
	return NewError(ErrCodeDecodeFailed, fmt.Sprintf("failed to decode %s", what)).WithCause(cause)
}

// Custom creates a custom error with the given message.
func Custom(message string) *LedgerError {
	return NewError(ErrCodeCustom, message)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// CodeOf returns the ledger error code in err's chain, or "" if none.
func CodeOf(err error) string {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}
