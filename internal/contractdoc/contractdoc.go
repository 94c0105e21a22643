// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package contractdoc models and validates the contract JSON document:
// a tagged union of invariants plus a generic value type for
// I/O example payloads. The store holds the document as opaque JSON text;
// decoding and validation happen here, at the boundary.
package contractdoc

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Criticality ranks how severely an invariant violation should be treated.
type Criticality string

const (
	CriticalityHigh   Criticality = "HIGH"
	CriticalityMedium Criticality = "MEDIUM"
	CriticalityLow    Criticality = "LOW"
)

// OnFail is the policy applied when an invariant check fails.
type OnFail string

const (
	OnFailError OnFail = "error"
	OnFailWarn  OnFail = "warn"
)

// Invariant is one named rule inside a contract.
type Invariant struct {
	Name        string      `json:"name"`
	Logic       string      `json:"logic"`
	Criticality Criticality `json:"criticality"`
	OnFail      OnFail      `json:"on_fail"`
}

// IOExample is an optional documented input/output pair.
type IOExample struct {
	Input       any    `json:"input"`
	Output      any    `json:"output"`
	Description string `json:"description,omitempty"`
}

// Document is the validated contract JSON document attached to an
// artifact.
type Document struct {
	FunctionSignature string      `json:"function_signature"`
	IntentSummary     string      `json:"intent_summary"`
	Invariants        []Invariant `json:"invariants"`
	IOExamples        []IOExample `json:"io_examples,omitempty"`
}

// ErrorKind distinguishes why a contract document failed validation, so
// callers can map it to the response envelope's error codes.
type ErrorKind string

const (
	ErrInvalidJSON   ErrorKind = "INVALID_JSON"
	ErrInvalidSchema ErrorKind = "INVALID_SCHEMA"
)

// ValidationError carries both the machine-readable kind and a human
// message describing the first schema violation found.
type ValidationError struct {
	Kind    ErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Parse decodes and validates a contract JSON document. On success it
// returns the validated Document; on failure, a *ValidationError whose
// Kind distinguishes malformed JSON from a well-formed-but-invalid
// document.
func Parse(raw []byte) (*Document, error) {
	if err := CheckSize(raw); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ValidationError{Kind: ErrInvalidJSON, Message: err.Error()}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks every required field, enum, and minimum-length
// constraint of the document schema. It returns the first violation found as a
// *ValidationError with Kind INVALID_SCHEMA.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.FunctionSignature) == "" {
		return schemaErr("function_signature must be a non-empty string")
	}
	summary := strings.TrimSpace(d.IntentSummary)
	if len(summary) < 10 {
		return schemaErr("intent_summary must be at least 10 characters after trimming")
	}
	if len(d.Invariants) < 1 {
		return schemaErr("invariants must contain at least one entry")
	}
	for i, ex := range d.IOExamples {
		if ex.Input != nil {
			if _, ok := ex.Input.(map[string]any); !ok {
				return schemaErr(fmt.Sprintf("io_examples[%d].input must be an object", i))
			}
		}
	}
	for i, inv := range d.Invariants {
		if strings.TrimSpace(inv.Name) == "" {
			return schemaErr(fmt.Sprintf("invariants[%d].name must be a non-empty identifier-like string", i))
		}
		if len(inv.Logic) < 5 {
			return schemaErr(fmt.Sprintf("invariants[%d].logic must be at least 5 characters", i))
		}
		switch inv.Criticality {
		case CriticalityHigh, CriticalityMedium, CriticalityLow:
		default:
			return schemaErr(fmt.Sprintf("invariants[%d].criticality %q is not HIGH, MEDIUM, or LOW", i, inv.Criticality))
		}
		switch inv.OnFail {
		case OnFailError, OnFailWarn:
		default:
			return schemaErr(fmt.Sprintf("invariants[%d].on_fail %q is not error or warn", i, inv.OnFail))
		}
	}
	return nil
}

func schemaErr(msg string) error {
	return &ValidationError{Kind: ErrInvalidSchema, Message: msg}
}

// Marshal serializes the document back to JSON, suitable for storing in
// the Contract row's Document field.
func (d *Document) Marshal() ([]byte, error) {
	return json.Marshal(d)
}
