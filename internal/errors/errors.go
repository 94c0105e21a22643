// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides structured error handling shared by every
// core entry point. It distinguishes validation, absence, state,
// integrity, and execution failures and carries the
// SCREAMING_SNAKE_CASE codes the response envelope (internal/envelope)
// serializes.
//
// # Usage
//
//	err := errors.Absence(errors.CodeFunctionNotFound, "function not found",
//	    map[string]any{"function_id": fid, "suggestions": suggestions})
//	if err != nil {
//	    return envelope.Err(err)
//	}
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code is one of the SCREAMING_SNAKE_CASE error codes the core emits.
type Code string

const (
	CodeDBNotInitialized   Code = "DB_NOT_INITIALIZED"
	CodeInvalidFunctionID  Code = "INVALID_FUNCTION_ID"
	CodeInvalidSchema      Code = "INVALID_SCHEMA"
	CodeInvalidJSON        Code = "INVALID_JSON"
	CodeFunctionNotFound   Code = "FUNCTION_NOT_FOUND"
	CodeContractNotFound   Code = "CONTRACT_NOT_FOUND"
	CodeQueueEmpty         Code = "QUEUE_EMPTY"
	CodeQueueItemNotFound  Code = "QUEUE_ITEM_NOT_FOUND"
	CodePathNotFound       Code = "PATH_NOT_FOUND"
	CodeScanError          Code = "SCAN_ERROR"
	CodeVerificationFailed Code = "VERIFICATION_FAILED"
	CodeExecutionError     Code = "EXECUTION_ERROR"
	CodeParseError         Code = "PARSE_ERROR"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeValidationError    Code = "VALIDATION_ERROR"
	CodeNotFound           Code = "NOT_FOUND"
)

// Kind is the broad error category, independent of the specific Code.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAbsence    Kind = "absence"
	KindState      Kind = "state"
	KindIntegrity  Kind = "integrity"
	KindExecution  Kind = "execution"
)

// CoreError is the error type every core operation returns on failure. It
// carries enough structure for internal/envelope to build the
// {success:false, error:{code,message,details}} shape verbatim.
type CoreError struct {
	Kind    Kind
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CoreError) Unwrap() error { return e.Err }

func newErr(kind Kind, code Code, message string, details map[string]any, err error) *CoreError {
	return &CoreError{Kind: kind, Code: code, Message: message, Details: details, Err: err}
}

// Validation builds a validation-kind error (caller supplied bad input:
// malformed function_id, malformed contract JSON, unknown enum value).
func Validation(code Code, message string, details map[string]any) *CoreError {
	return newErr(KindValidation, code, message, details, nil)
}

// Absence builds an absence-kind error (referenced artifact, contract, or
// queue entry does not exist). Callers typically attach fuzzy-match
// suggestions under details["suggestions"].
func Absence(code Code, message string, details map[string]any) *CoreError {
	return newErr(KindAbsence, code, message, details, nil)
}

// State builds a state-kind error (queue empty, database not
// initialized).
func State(code Code, message string, details map[string]any) *CoreError {
	return newErr(KindState, code, message, details, nil)
}

// Integrity builds an integrity-kind error (the upsert dance hit an
// unexpected foreign-key failure). Always treated as internal.
func Integrity(message string, err error) *CoreError {
	return newErr(KindIntegrity, CodeInternalError, message, nil, err)
}

// Execution builds an execution-kind error (subprocess timeout, non-zero
// exit, malformed verification output).
func Execution(code Code, message string, details map[string]any, err error) *CoreError {
	return newErr(KindExecution, code, message, details, err)
}

// Internal wraps an unexpected error as CodeInternalError.
func Internal(message string, err error) *CoreError {
	return newErr(KindState, CodeInternalError, message, nil, err)
}

// As reports whether err is (or wraps) a *CoreError, mirroring the
// standard library's errors.As without requiring callers to import both
// packages.
func As(err error) (*CoreError, bool) {
	var ce *CoreError
	ok := stderrors.As(err, &ce)
	return ce, ok
}
