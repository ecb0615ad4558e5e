// Package generator emits DNA conversion code from parsed structures.
package generator

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/spf13/afero"

	"dnagen/internal/config"
	"dnagen/internal/logger"
	"dnagen/internal/model"
	"dnagen/internal/parser"
)

// Statement template names.
const (
	tmplSignature     = "signature"
	tmplSeparator     = "separator"
	tmplPointer       = "pointer"
	tmplArray         = "array"
	tmplArray2D       = "array2d"
	tmplField         = "field"
	tmplTrailer       = "trailer"
	tmplRegistry      = "registry"
	tmplRegistryEntry = "registryEntry"
)

// Generator renders declarations, conversion bodies and the converter
// registry for a schema.
type Generator struct {
	config     *config.Config
	statements *template.Template
}

// New creates a new Generator.
func New(cfg *config.Config) *Generator {
	return &Generator{
		config: cfg,
	}
}

// LoadStatements compiles the configured statement templates.
func (g *Generator) LoadStatements() error {
	s := g.config.Statements
	root := template.New("statements").Option("missingkey=error").Funcs(templateFuncs())
	for _, st := range []struct{ name, src string }{
		{tmplSignature, s.Signature},
		{tmplSeparator, s.Separator},
		{tmplPointer, s.Pointer},
		{tmplArray, s.Array},
		{tmplArray2D, s.Array2D},
		{tmplField, s.Field},
		{tmplTrailer, s.Trailer},
		{tmplRegistry, s.Registry},
		{tmplRegistryEntry, s.RegistryEntry},
	} {
		if _, err := root.New(st.name).Parse(st.src); err != nil {
			return fmt.Errorf("loading %s statement: %w", st.name, err)
		}
	}
	g.statements = root
	return nil
}

// StructData is passed to structure-level statements.
type StructData struct {
	Name      string
	Structure *model.Structure
}

// FieldData is passed to field read statements.
type FieldData struct {
	Policy   string // Runtime error policy token
	DestCast string // Cast applied to the destination member, if any
	Name     string // Canonical member name
	DNAName  string // Lookup key in the foreign DNA
	Field    model.Field
}

func (g *Generator) execute(sb *strings.Builder, name string, data any) error {
	if g.statements == nil {
		if err := g.LoadStatements(); err != nil {
			return err
		}
	}
	if err := g.statements.ExecuteTemplate(sb, name, data); err != nil {
		return fmt.Errorf("executing %s statement: %w", name, err)
	}
	return nil
}

// Output holds the generated text for both templates.
type Output struct {
	Declarations   string
	Implementation string
}

// Emit renders all generated text for schema.
func (g *Generator) Emit(schema *model.Schema) (*Output, error) {
	decls, err := g.Declarations(schema)
	if err != nil {
		return nil, err
	}

	var impl strings.Builder
	for _, st := range schema.Structures() {
		body, err := g.Conversion(st, schema.Enums)
		if err != nil {
			return nil, err
		}
		impl.WriteString(body)
	}
	registry, err := g.Registry(schema)
	if err != nil {
		return nil, err
	}
	impl.WriteString(registry)

	return &Output{Declarations: decls, Implementation: impl.String()}, nil
}

// Load reads and parses the configured header.
func (g *Generator) Load(ctx context.Context, fs afero.Fs) (*model.Schema, error) {
	log := logger.FromContext(ctx)

	p := parser.New(g.config.ParserOptions())
	schema, err := p.ParseFile(fs, g.config.Input)
	if err != nil {
		return nil, err
	}

	for _, e := range schema.Enums.Names() {
		log.Debug("Found enum", "enum", e)
	}
	for _, st := range schema.Structures() {
		log.Debug("Found structure", "struct", st.Name, "fields", len(st.Fields))
	}
	for _, name := range schema.Duplicates() {
		log.Warn("Structure defined more than once, last definition wins", "struct", name)
	}
	for _, m := range p.Skipped() {
		log.Debug("Skipped member function", "member", m)
	}
	log.Info("Parsed header",
		"input", schema.SourcePath,
		"fingerprint", schema.Fingerprint.String(),
		"structs", schema.Len(),
		"enums", schema.Enums.Len(),
	)
	return schema, nil
}

// Run parses the header, renders both outputs and writes them. Nothing is
// written unless every step succeeds.
func (g *Generator) Run(ctx context.Context, fs afero.Fs) (*model.Schema, error) {
	schema, err := g.Load(ctx, fs)
	if err != nil {
		return nil, err
	}
	if err := g.Write(ctx, fs, schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// Write renders schema into both templates and overwrites the outputs.
func (g *Generator) Write(ctx context.Context, fs afero.Fs, schema *model.Schema) error {
	out, err := g.Emit(schema)
	if err != nil {
		return err
	}

	binder := NewBinder(fs, g.config.Marker)
	if err := binder.Bind(
		Job{Template: g.config.Declarations.Template, Output: g.config.Declarations.Output, Content: out.Declarations},
		Job{Template: g.config.Implementation.Template, Output: g.config.Implementation.Output, Content: out.Implementation},
	); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("Generated converters",
		"declarations", g.config.Declarations.Output,
		"implementation", g.config.Implementation.Output,
	)
	return nil
}
