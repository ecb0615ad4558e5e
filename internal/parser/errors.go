package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedStructure is returned when a struct keyword does not start
	// a well-formed block or forward declaration.
	ErrMalformedStructure = errors.New("malformed structure block")
	// ErrUnsupportedDeclaration is returned for member declarations outside
	// the recognized dialect (function pointers, bit-fields, references,
	// multi-level pointers, initializers).
	ErrUnsupportedDeclaration = errors.New("unsupported member declaration")
	// ErrWrapperArray is returned when a wrapper or pointer shape is combined
	// with array suffixes it cannot carry.
	ErrWrapperArray = errors.New("wrapper shape combined with array declarator")
	// ErrDuplicateStructure is returned in strict mode when a structure name
	// is defined twice.
	ErrDuplicateStructure = errors.New("duplicate structure")
)

// SyntaxError positions a parse error in the input.
type SyntaxError struct {
	Line int
	Text string // Offending declaration, if any
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %v: %s", e.Line, e.Err, e.Text)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func errAt(line int, text string, sentinel error, format string, args ...any) error {
	err := sentinel
	if format != "" {
		err = fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
	}
	return &SyntaxError{Line: line, Text: text, Err: err}
}
