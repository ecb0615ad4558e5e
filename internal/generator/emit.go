package generator

import (
	"strings"

	"dnagen/internal/model"
)

// Declarations renders one Convert declaration per structure, in discovery
// order.
func (g *Generator) Declarations(schema *model.Schema) (string, error) {
	var sb strings.Builder
	for _, st := range schema.Structures() {
		if err := g.execute(&sb, tmplSignature, StructData{Name: st.Name, Structure: st}); err != nil {
			return "", err
		}
		sb.WriteString(";\n")
	}
	return sb.String(), nil
}

// Conversion renders the Convert body of one structure. Members whose base
// type is in enums are read through the enum cast.
func (g *Generator) Conversion(st *model.Structure, enums *model.EnumSet) (string, error) {
	var sb strings.Builder
	data := StructData{Name: st.Name, Structure: st}

	if err := g.execute(&sb, tmplSeparator, data); err != nil {
		return "", err
	}
	if err := g.execute(&sb, tmplSignature, data); err != nil {
		return "", err
	}
	sb.WriteString("{ \n")

	for _, f := range st.Fields {
		fd := FieldData{
			Policy:  g.config.PolicyToken(f.Policy),
			Name:    f.Name,
			DNAName: f.DNAName(),
			Field:   f,
		}
		if enums.Contains(f.BaseType) {
			fd.DestCast = g.config.Statements.EnumCast
		}
		if err := g.execute(&sb, statementFor(f), fd); err != nil {
			return "", err
		}
	}

	if err := g.execute(&sb, tmplTrailer, data); err != nil {
		return "", err
	}
	sb.WriteString("}\n\n")
	return sb.String(), nil
}

// Registry renders the function that registers an allocator and converter
// for every structure.
func (g *Generator) Registry(schema *model.Schema) (string, error) {
	var sb strings.Builder
	if err := g.execute(&sb, tmplSeparator, StructData{}); err != nil {
		return "", err
	}
	if err := g.execute(&sb, tmplRegistry, StructData{}); err != nil {
		return "", err
	}
	sb.WriteString("{\n")
	for _, st := range schema.Structures() {
		if err := g.execute(&sb, tmplRegistryEntry, StructData{Name: st.Name, Structure: st}); err != nil {
			return "", err
		}
	}
	sb.WriteString("\n}\n")
	return sb.String(), nil
}
