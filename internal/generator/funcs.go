package generator

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"dnagen/internal/model"
)

// templateFuncs returns the functions available to statement templates:
// the sprig text functions plus field helpers.
func templateFuncs() template.FuncMap {
	funcs := sprig.TxtFuncMap()

	// Field helpers
	funcs["dims"] = func(f model.Field) string {
		if len(f.Dims) == 0 {
			return ""
		}
		return "[" + strings.Join(f.Dims, "][") + "]"
	}
	funcs["isPointer"] = func(f model.Field) bool { return f.Indirection() > 0 }
	funcs["isArray"] = func(f model.Field) bool { return len(f.Dims) > 0 }
	funcs["shape"] = func(f model.Field) string { return string(f.Shape) }

	return funcs
}

// statementFor picks the read statement of a field. Pointer indirection
// takes priority over array suffixes.
func statementFor(f model.Field) string {
	switch {
	case f.Indirection() >= 1:
		return tmplPointer
	case f.Shape == model.ShapeFixedArray1D:
		return tmplArray
	case f.Shape == model.ShapeFixedArray2D:
		return tmplArray2D
	default:
		return tmplField
	}
}
