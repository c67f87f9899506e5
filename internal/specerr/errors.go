// Package specerr defines the error taxonomy of the resolution and IR stage.
//
// Reference errors are fatal and abort a generation run. Enum metadata errors
// are diagnostics: they are collected as warnings and generation continues.
//
//	if errors.Is(err, specerr.ErrUnresolvableReference) {
//	    var refErr *specerr.ReferenceError
//	    errors.As(err, &refErr)
//	    fmt.Println("dangling pointer:", refErr.Ref)
//	}
package specerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrMalformedReference indicates a $ref not of the form #/a/b/...
	ErrMalformedReference = errors.New("malformed reference")

	// ErrUnresolvableReference indicates a well-formed $ref whose target does not exist.
	ErrUnresolvableReference = errors.New("unresolvable reference")

	// ErrInconsistentEnumMetadata indicates enum and x-enumNames of different lengths.
	ErrInconsistentEnumMetadata = errors.New("inconsistent enum metadata")

	// ErrUnsupportedSpec indicates a document that is neither Swagger 2 nor OpenAPI 3.
	ErrUnsupportedSpec = errors.New("unsupported spec")

	// ErrLoad indicates the document could not be read or fetched.
	ErrLoad = errors.New("load error")
)

// ReferenceError is a failure to resolve a $ref pointer.
type ReferenceError struct {
	// Ref is the pointer as written in the document.
	Ref string
	// Segment is the pointer segment where the walk failed, if any.
	Segment string
	// Malformed is true when Ref is not an internal #/... pointer.
	Malformed bool
	// Message provides additional context.
	Message string
}

func (e *ReferenceError) Error() string {
	var sb strings.Builder
	if e.Malformed {
		sb.WriteString("malformed reference")
	} else {
		sb.WriteString("unresolvable reference")
	}
	sb.WriteString(fmt.Sprintf(" %q", e.Ref))
	if e.Segment != "" {
		sb.WriteString(fmt.Sprintf(" at segment %q", e.Segment))
	}
	if e.Message != "" {
		sb.WriteString(": " + e.Message)
	}
	return sb.String()
}

// Is matches ErrMalformedReference or ErrUnresolvableReference.
func (e *ReferenceError) Is(target error) bool {
	if e.Malformed {
		return target == ErrMalformedReference
	}
	return target == ErrUnresolvableReference
}

// EnumMetadataError reports enum values and display names of different lengths.
// Pairing is truncated to the shorter list.
type EnumMetadataError struct {
	Schema string
	Values int
	Names  int
}

func (e *EnumMetadataError) Error() string {
	return fmt.Sprintf("schema %q: enum has %d values but x-enumNames has %d names; using first %d",
		e.Schema, e.Values, e.Names, min(e.Values, e.Names))
}

func (e *EnumMetadataError) Is(target error) bool {
	return target == ErrInconsistentEnumMetadata
}

// ShapeError is raised when a document lacks a recognizable OpenAPI shape.
type ShapeError struct {
	Location string
	Message  string
}

func (e *ShapeError) Error() string {
	if e.Location == "" {
		return "unsupported spec: " + e.Message
	}
	return fmt.Sprintf("unsupported spec %s: %s", e.Location, e.Message)
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrUnsupportedSpec
}

// LoadError is a failure to read, fetch or decode a document.
type LoadError struct {
	Location string
	Cause    error
}

func (e *LoadError) Error() string {
	if e.Cause == nil {
		return "loading " + e.Location
	}
	return fmt.Sprintf("loading %s: %v", e.Location, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }

func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}
