package generator

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/yaml.v3"

	"dnagen/internal/model"
)

// Listing formats.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
	FormatSpew  = "spew"
)

// Listing is a serializable view of a parsed schema.
type Listing struct {
	Source      string          `yaml:"source,omitempty"`
	Fingerprint string          `yaml:"fingerprint,omitempty"`
	Enums       []string        `yaml:"enums"`
	Structures  []StructListing `yaml:"structures"`
}

// StructListing lists one structure and its fields.
type StructListing struct {
	Name   string         `yaml:"name"`
	Base   string         `yaml:"base,omitempty"`
	Fields []FieldListing `yaml:"fields"`
}

// FieldListing describes one classified field.
type FieldListing struct {
	Type    string       `yaml:"type"`
	Shape   model.Shape  `yaml:"shape"`
	Name    string       `yaml:"name"`
	DNAName string       `yaml:"dna"`
	Dims    []string     `yaml:"dims,omitempty"`
	Policy  model.Policy `yaml:"policy"`
}

// NewListing builds the listing of schema.
func NewListing(schema *model.Schema) Listing {
	l := Listing{
		Source:     schema.SourcePath,
		Enums:      schema.Enums.Names(),
		Structures: []StructListing{},
	}
	if l.Enums == nil {
		l.Enums = []string{}
	}
	if schema.SourcePath != "" {
		l.Fingerprint = schema.Fingerprint.String()
	}
	for _, st := range schema.Structures() {
		sl := StructListing{Name: st.Name, Base: st.Base, Fields: []FieldListing{}}
		for _, f := range st.Fields {
			sl.Fields = append(sl.Fields, FieldListing{
				Type:    f.BaseType,
				Shape:   f.Shape,
				Name:    f.Name,
				DNAName: f.DNAName(),
				Dims:    f.Dims,
				Policy:  f.Policy,
			})
		}
		l.Structures = append(l.Structures, sl)
	}
	return l
}

// WriteListing writes schema to w in the given format.
func WriteListing(w io.Writer, schema *model.Schema, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewListing(schema)); err != nil {
			return fmt.Errorf("encoding listing: %w", err)
		}
		return enc.Close()
	case FormatSpew:
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
		cfg.Fdump(w, NewListing(schema))
		return nil
	case FormatTable, "":
		return writeTable(w, schema)
	default:
		return fmt.Errorf("unknown listing format %q", format)
	}
}

func writeTable(w io.Writer, schema *model.Schema) error {
	var sb strings.Builder
	for _, e := range schema.Enums.Names() {
		fmt.Fprintf(&sb, "Enum: %s\n", e)
	}
	for _, st := range schema.Structures() {
		fmt.Fprintf(&sb, "Structure %s\n", st.Name)
		for _, f := range st.Fields {
			fmt.Fprintf(&sb, "\t%s\t%s\t%s\t%s\n", f.BaseType, f.Shape, f.DNAName(), f.Policy)
		}
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
