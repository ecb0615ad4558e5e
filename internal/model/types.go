// Package model defines the intermediate representation for parsed DNA structures.
package model

import (
	"fmt"
	"strings"
)

// Shape represents how a field is stored in the destination structure.
type Shape string

const (
	ShapeScalar                Shape = "scalar"
	ShapeRawPointer            Shape = "pointer"
	ShapeWrappedPointer        Shape = "shared_ptr"
	ShapeDynamicArrayOfValue   Shape = "vector"
	ShapeDynamicArrayOfPointer Shape = "vector_shared_ptr"
	ShapeFixedArray1D          Shape = "array"
	ShapeFixedArray2D          Shape = "array2"
)

// Indirection returns the pointer depth the shape has in the foreign DNA.
// Array decoration is not indirection.
func (s Shape) Indirection() int {
	switch s {
	case ShapeRawPointer, ShapeWrappedPointer, ShapeDynamicArrayOfValue:
		return 1
	case ShapeDynamicArrayOfPointer:
		return 2
	default:
		return 0
	}
}

// IsWrapper reports whether the shape comes from a template wrapper
// (shared_ptr or vector) rather than plain declarator syntax.
func (s Shape) IsWrapper() bool {
	switch s {
	case ShapeWrappedPointer, ShapeDynamicArrayOfValue, ShapeDynamicArrayOfPointer:
		return true
	}
	return false
}

// Policy is the runtime error policy for a field that is missing or
// type-mismatched in the foreign DNA.
type Policy int

const (
	PolicyIgnore Policy = iota
	PolicyWarn
	PolicyFail
)

var policyKeywords = [...]string{
	PolicyIgnore: "IGNO",
	PolicyWarn:   "WARN",
	PolicyFail:   "FAIL",
}

// ParsePolicy maps an annotation keyword to its Policy.
func ParsePolicy(keyword string) (Policy, bool) {
	for p, kw := range policyKeywords {
		if kw == keyword {
			return Policy(p), true
		}
	}
	return PolicyIgnore, false
}

// Keyword returns the annotation keyword of the policy.
func (p Policy) Keyword() string {
	if p < PolicyIgnore || p > PolicyFail {
		return fmt.Sprintf("Policy(%d)", int(p))
	}
	return policyKeywords[p]
}

func (p Policy) String() string {
	return p.Keyword()
}

// MarshalYAML renders the policy as its keyword.
func (p Policy) MarshalYAML() (any, error) {
	return p.Keyword(), nil
}

// Structure represents one parsed struct block.
type Structure struct {
	Name   string  // Structure name (e.g., "Object")
	Base   string  // Optional base tag after ':' (e.g., "ElemBase")
	Line   int     // Line of the struct keyword
	Fields []Field // Fields in declaration order
}

// Field represents one declarator of a member line.
type Field struct {
	BaseType   string   // Element type after wrapper unwrapping
	Shape      Shape    // Storage shape
	Name       string   // Canonical name, array suffixes stripped
	Declarator string   // Declarator as written, including array suffixes
	Dims       []string // Fixed array dimensions, outermost first
	Policy     Policy   // Error policy
}

// Indirection returns the pointer depth of the field in the foreign DNA.
func (f Field) Indirection() int {
	return f.Shape.Indirection()
}

// DNAName returns the lookup key of the field in the foreign DNA, the
// canonical name prefixed with one '*' per level of indirection.
func (f Field) DNAName() string {
	return strings.Repeat("*", f.Indirection()) + f.Name
}
