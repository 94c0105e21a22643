// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package envelope writes the machine-readable response envelope every
// core entry point returns:
//
//	{ "success": true,  "data": <object>, "error": null }
//	{ "success": false, "data": null, "error":
//	     { "code": <SCREAMING_SNAKE_CASE>, "message": <string>,
//	       "details": <object> } }
package envelope

import (
	"io"
	"os"

	coreerrors "github.com/kraklabs/drspec/internal/errors"
	"github.com/kraklabs/drspec/internal/output"
)

// Error is the wire shape of the envelope's error field.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Envelope is the top-level machine-readable response shape.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   *Error `json:"error"`
}

// Ok builds a successful envelope wrapping data.
func Ok(data any) *Envelope {
	return &Envelope{Success: true, Data: data, Error: nil}
}

// Err builds a failed envelope from any error. *errors.CoreError values
// are unpacked into their code/message/details; any other error is
// reported as INTERNAL_ERROR.
func Err(err error) *Envelope {
	if err == nil {
		return Ok(nil)
	}
	if ce, ok := coreerrors.As(err); ok {
		return &Envelope{
			Success: false,
			Data:    nil,
			Error: &Error{
				Code:    string(ce.Code),
				Message: ce.Message,
				Details: ce.Details,
			},
		}
	}
	return &Envelope{
		Success: false,
		Data:    nil,
		Error: &Error{
			Code:    string(coreerrors.CodeInternalError),
			Message: err.Error(),
		},
	}
}

// Write encodes the envelope as pretty-printed JSON to w.
func Write(w io.Writer, env *Envelope) error {
	return output.JSONTo(w, env)
}

// WriteStdout writes the envelope to stdout. Convenience wrapper used by
// cmd/drspec's thin CLI handlers.
func WriteStdout(env *Envelope) error {
	return Write(os.Stdout, env)
}
