package entities

import (
	"errors"
	"fmt"
	"strings"
)

// DiagnosticKind classifies a recoverable pipeline failure
type DiagnosticKind int

const (
	ExtractionError DiagnosticKind = iota
	ValidationError
	ReferenceMismatch
	AllocationWarning
)

// String method for DiagnosticKind enum
func (k DiagnosticKind) String() string {
	switch k {
	case ExtractionError:
		return "ExtractionError"
	case ValidationError:
		return "ValidationError"
	case ReferenceMismatch:
		return "ReferenceMismatch"
	case AllocationWarning:
		return "AllocationWarning"
	default:
		return "Unknown"
	}
}

// MarshalText renders the kind by name in JSON output
func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Fatal pipeline conditions
var (
	ErrDocumentUnreadable = errors.New("document could not be opened")
	ErrNoValidLines       = errors.New("no purchase-order lines survived validation")
	ErrCatalogEmpty       = errors.New("catalog returned no variants for any requested reference")
)

// Diagnostic records one recoverable failure and where it happened
type Diagnostic struct {
	Kind      DiagnosticKind `json:"kind"`
	Stage     string         `json:"stage"`
	Document  string         `json:"document,omitempty"`
	Page      int            `json:"page,omitempty"`
	Line      int            `json:"line,omitempty"`
	Reference ReferenceCode  `json:"reference,omitempty"`
	Message   string         `json:"message"`
}

// String renders the diagnostic with its location
func (d Diagnostic) String() string {
	var loc []string
	if d.Document != "" {
		loc = append(loc, d.Document)
	}
	if d.Page > 0 {
		loc = append(loc, fmt.Sprintf("page %d", d.Page))
	}
	if d.Line > 0 {
		loc = append(loc, fmt.Sprintf("line %d", d.Line))
	}
	if d.Reference != "" {
		loc = append(loc, fmt.Sprintf("ref %s", d.Reference))
	}
	if len(loc) == 0 {
		return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Stage, d.Message)
	}
	return fmt.Sprintf("[%s] %s (%s): %s", d.Kind, d.Stage, strings.Join(loc, ", "), d.Message)
}

// Diagnostics accumulates diagnostics across stages
type Diagnostics []Diagnostic

// Count returns the number of diagnostics of the given kind
func (ds Diagnostics) Count(kind DiagnosticKind) int {
	n := 0
	for _, d := range ds {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Messages returns the rendered diagnostics
func (ds Diagnostics) Messages() []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}
