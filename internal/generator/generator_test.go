package generator

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnagen/internal/config"
	"dnagen/internal/logger"
	"dnagen/internal/model"
	"dnagen/internal/parser"
)

const separator = "//--------------------------------------------------------------------------------"

func parse(t *testing.T, src string) *model.Schema {
	t.Helper()
	schema, err := parser.New(parser.Options{}).Parse(src)
	require.NoError(t, err)
	return schema
}

func testContext() context.Context {
	return logger.ContextWithLogger(context.Background(), logger.NewLogger(logger.TestConfig()))
}

func TestGenerator_Conversion(t *testing.T) {
	t.Run("Should emit pointer, array and trailer statements in order", func(t *testing.T) {
		schema := parse(t, "struct Foo { int* bar WARN; float baz[3]; };")
		foo, _ := schema.Lookup("Foo")

		body, err := New(config.New()).Conversion(foo, schema.Enums)
		require.NoError(t, err)

		expected := separator +
			"\ntemplate <> void Structure :: Convert<Foo> (\n    Foo& dest,\n    const FileDatabase& db\n    ) const\n" +
			"{ \n" +
			"\n    ReadFieldPtr<ErrorPolicy_Warn>(dest.bar,\"*bar\",db);" +
			"\n    ReadFieldArray<ErrorPolicy_Igno>(dest.baz,\"baz\",db);" +
			"\n\n\tdb.reader->IncPtr(size);\n" +
			"}\n\n"
		assert.Equal(t, expected, body)
	})

	t.Run("Should pick one statement per shape", func(t *testing.T) {
		schema := parse(t, `struct Mesh : ElemBase {
	ID id FAIL;
	float obmat[4][4];
	vector<MFace> mface FAIL;
	std::vector< boost::shared_ptr<Material> > mat FAIL;
	boost::shared_ptr<Object> parent WARN;
};`)
		mesh, _ := schema.Lookup("Mesh")

		body, err := New(config.New()).Conversion(mesh, schema.Enums)
		require.NoError(t, err)

		assert.Contains(t, body, `ReadField<ErrorPolicy_Fail>(dest.id,"id",db);`)
		assert.Contains(t, body, `ReadFieldArray2<ErrorPolicy_Igno>(dest.obmat,"obmat",db);`)
		assert.Contains(t, body, `ReadFieldPtr<ErrorPolicy_Fail>(dest.mface,"*mface",db);`)
		assert.Contains(t, body, `ReadFieldPtr<ErrorPolicy_Fail>(dest.mat,"**mat",db);`)
		assert.Contains(t, body, `ReadFieldPtr<ErrorPolicy_Warn>(dest.parent,"*parent",db);`)
		assert.Less(t, strings.Index(body, "dest.id"), strings.Index(body, "dest.obmat"))
		assert.Less(t, strings.Index(body, "dest.mat"), strings.Index(body, "dest.parent"))
	})

	t.Run("Should cast enum members only", func(t *testing.T) {
		schema := parse(t, `struct Lamp : ElemBase {
	Type type FAIL;
	int mode;
	enum Type {
		Type_Local = 0x0,
		Type_Sun = 0x1
	};
};`)
		lamp, _ := schema.Lookup("Lamp")

		body, err := New(config.New()).Conversion(lamp, schema.Enums)
		require.NoError(t, err)

		assert.Contains(t, body, `ReadField<ErrorPolicy_Fail>((int&)dest.type,"type",db);`)
		assert.Contains(t, body, `ReadField<ErrorPolicy_Igno>(dest.mode,"mode",db);`)
	})

	t.Run("Should cast against enums from other structures", func(t *testing.T) {
		schema := parse(t, "struct A { enum Mode { M_A }; };\nstruct B { Mode mode; };")
		b, _ := schema.Lookup("B")

		body, err := New(config.New()).Conversion(b, schema.Enums)
		require.NoError(t, err)
		assert.Contains(t, body, `((int&)dest.mode,"mode",db)`)

		body, err = New(config.New()).Conversion(b, model.NewEnumSet())
		require.NoError(t, err)
		assert.Contains(t, body, `(dest.mode,"mode",db)`)
	})
}

func TestGenerator_DeclarationsAndRegistry(t *testing.T) {
	t.Run("Should emit one declaration and one registry entry per structure", func(t *testing.T) {
		schema := parse(t, "struct Object { int a; };\nstruct Group { int b; };\nstruct Object { int c; };")
		gen := New(config.New())

		decls, err := gen.Declarations(schema)
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(decls, "template <> void Structure :: Convert<"))
		assert.Less(t, strings.Index(decls, "Convert<Object>"), strings.Index(decls, "Convert<Group>"))
		assert.True(t, strings.HasSuffix(decls, "    ) const\n;\n"))

		registry, err := gen.Registry(schema)
		require.NoError(t, err)
		expected := separator + `
void DNA::RegisterConverters() {

    converters["Object"] = DNA::FactoryPair( &Structure::Allocate<Object>, &Structure::Convert<Object> );
    converters["Group"] = DNA::FactoryPair( &Structure::Allocate<Group>, &Structure::Convert<Group> );
}
`
		assert.Equal(t, expected, registry)
	})

	t.Run("Should use the last definition of a duplicate", func(t *testing.T) {
		schema := parse(t, "struct Object { int a; };\nstruct Object { int c; };")
		out, err := New(config.New()).Emit(schema)
		require.NoError(t, err)
		assert.Contains(t, out.Implementation, "dest.c")
		assert.NotContains(t, out.Implementation, "dest.a")
	})
}

func TestGenerator_CustomStatements(t *testing.T) {
	t.Run("Should render statements from configuration", func(t *testing.T) {
		cfg := config.New()
		cfg.Statements.Field = `{{"\n"}}read({{.Name}}{{dims .Field}}, {{.Policy}});`
		cfg.Policies.Ignore = "IGNORE"
		schema := parse(t, "struct S { int x; };")
		s, _ := schema.Lookup("S")

		body, err := New(cfg).Conversion(s, schema.Enums)
		require.NoError(t, err)
		assert.Contains(t, body, "\nread(x, IGNORE);")
	})

	t.Run("Should expose field helpers to pointer and array statements", func(t *testing.T) {
		cfg := config.New()
		cfg.Statements.Pointer = `{{"\n"}}ptr {{shape .Field}} {{isPointer .Field}} {{upper .Name}};`
		cfg.Statements.Array2D = `{{"\n"}}arr {{isArray .Field}} {{.Name}}{{dims .Field}};`
		schema := parse(t, "struct S { vector<T> items; float m[4][4]; };")
		s, _ := schema.Lookup("S")

		body, err := New(cfg).Conversion(s, schema.Enums)
		require.NoError(t, err)
		assert.Contains(t, body, "\nptr vector true ITEMS;")
		assert.Contains(t, body, "\narr true m[4][4];")
	})

	t.Run("Should fail on a broken statement template", func(t *testing.T) {
		cfg := config.New()
		cfg.Statements.Pointer = "{{.Policy"
		err := New(cfg).LoadStatements()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pointer")
	})

	t.Run("Should fail on an unknown template field", func(t *testing.T) {
		cfg := config.New()
		cfg.Statements.Field = "{{.Missing}}"
		schema := parse(t, "struct S { int x; };")
		s, _ := schema.Lookup("S")
		_, err := New(cfg).Conversion(s, schema.Enums)
		assert.Error(t, err)
	})
}

func writeFixtures(t *testing.T, fs afero.Fs, cfg *config.Config, header string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, cfg.Input, []byte(header), 0o644))
	require.NoError(t, afero.WriteFile(fs, cfg.Declarations.Template, []byte("#pragma once\n<HERE>\n// end\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, cfg.Implementation.Template, []byte("#include \"BlenderDNA.h\"\n<HERE>\n"), 0o644))
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.Input = "code/BlenderScene.h"
	cfg.Declarations.Output = "code/BlenderSceneGen.h"
	cfg.Implementation.Output = "code/BlenderScene.cpp"
	return cfg
}

const header = `
namespace Assimp { namespace Blender {
struct Foo : ElemBase {
	int* bar WARN;
	float baz[3];
};
struct Lamp : ElemBase {
	enum Type { Type_Local = 0 };
	Type type FAIL;
};
} }
`

func TestGenerator_Run(t *testing.T) {
	t.Run("Should write both outputs", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		cfg := testConfig()
		writeFixtures(t, fs, cfg, header)

		schema, err := New(cfg).Run(testContext(), fs)
		require.NoError(t, err)
		assert.Equal(t, []string{"Foo", "Lamp"}, schema.Names())

		decls, err := afero.ReadFile(fs, cfg.Declarations.Output)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(decls), "#pragma once\n\ntemplate <> void Structure :: Convert<Foo>"))
		assert.True(t, strings.HasSuffix(string(decls), ";\n\n// end\n"))
		assert.NotContains(t, string(decls), "<HERE>")

		impl, err := afero.ReadFile(fs, cfg.Implementation.Output)
		require.NoError(t, err)
		text := string(impl)
		assert.Contains(t, text, `ReadFieldPtr<ErrorPolicy_Warn>(dest.bar,"*bar",db);`)
		assert.Contains(t, text, `ReadField<ErrorPolicy_Fail>((int&)dest.type,"type",db);`)
		assert.Less(t, strings.Index(text, "Convert<Lamp>"), strings.Index(text, "RegisterConverters"))
	})

	t.Run("Should produce identical output on every run", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		cfg := testConfig()
		writeFixtures(t, fs, cfg, header)

		_, err := New(cfg).Run(testContext(), fs)
		require.NoError(t, err)
		first, err := afero.ReadFile(fs, cfg.Implementation.Output)
		require.NoError(t, err)

		_, err = New(cfg).Run(testContext(), fs)
		require.NoError(t, err)
		second, err := afero.ReadFile(fs, cfg.Implementation.Output)
		require.NoError(t, err)

		assert.True(t, bytes.Equal(first, second))
	})

	t.Run("Should write nothing when a template lacks its marker", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		cfg := testConfig()
		writeFixtures(t, fs, cfg, header)
		require.NoError(t, afero.WriteFile(fs, cfg.Implementation.Template, []byte("no marker here\n"), 0o644))

		_, err := New(cfg).Run(testContext(), fs)
		require.ErrorIs(t, err, ErrMissingMarker)

		exists, err := afero.Exists(fs, cfg.Declarations.Output)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Should fail on a missing template", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		cfg := testConfig()
		writeFixtures(t, fs, cfg, header)
		require.NoError(t, fs.Remove(cfg.Declarations.Template))

		_, err := New(cfg).Run(testContext(), fs)
		assert.ErrorIs(t, err, ErrUnreadableTemplate)
	})

	t.Run("Should fail on a missing header", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := New(testConfig()).Run(testContext(), fs)
		assert.ErrorIs(t, err, parser.ErrUnreadableInput)
	})

	t.Run("Should fail on a malformed header", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		cfg := testConfig()
		writeFixtures(t, fs, cfg, header+"\nstruct Broken { int x; }\n")

		_, err := New(cfg).Run(testContext(), fs)
		assert.ErrorIs(t, err, parser.ErrMalformedStructure)
	})
}

func TestGenerator_RunExample(t *testing.T) {
	t.Run("Should generate the bundled example without touching the repository", func(t *testing.T) {
		base := afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), "../../examples"))
		fs := afero.NewCopyOnWriteFs(base, afero.NewMemMapFs())

		cfg := config.New()
		cfg.Input = "BlenderScene.h"
		cfg.Declarations.Template = "BlenderSceneGen.h.template"
		cfg.Declarations.Output = "out/BlenderSceneGen.h"
		cfg.Implementation.Template = "BlenderScene.cpp.template"
		cfg.Implementation.Output = "out/BlenderScene.cpp"

		schema, err := New(cfg).Run(testContext(), fs)
		require.NoError(t, err)
		assert.Equal(t, []string{"ID", "ListBase", "MVert", "MFace", "Material", "Mesh", "Lamp", "Object", "Scene"}, schema.Names())

		impl, err := afero.ReadFile(fs, cfg.Implementation.Output)
		require.NoError(t, err)
		text := string(impl)
		assert.Contains(t, text, `ReadField<ErrorPolicy_Fail>(dest.v4,"v4",db);`)
		assert.Contains(t, text, `ReadFieldPtr<ErrorPolicy_Igno>(dest.mtex,"*mtex",db);`)
		assert.Contains(t, text, `ReadFieldPtr<ErrorPolicy_Fail>(dest.mat,"**mat",db);`)
		assert.Contains(t, text, `ReadFieldPtr<ErrorPolicy_Warn>(dest.parent,"*parent",db);`)
		assert.Contains(t, text, `ReadFieldArray2<ErrorPolicy_Warn>(dest.obmat,"obmat",db);`)
		assert.Contains(t, text, `ReadField<ErrorPolicy_Igno>((int&)dest.falloff_type,"falloff_type",db);`)
		assert.Equal(t, 9, strings.Count(text, "DNA::FactoryPair("))

		_, err = base.Stat(cfg.Implementation.Output)
		assert.Error(t, err)
	})
}

func TestBinder(t *testing.T) {
	t.Run("Should reject a template with two markers", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "a.template", []byte("<HERE><HERE>"), 0o644))

		_, err := NewBinder(fs, "<HERE>").Render(Job{Template: "a.template"})
		assert.ErrorIs(t, err, ErrDuplicateMarker)
	})

	t.Run("Should overwrite existing outputs", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "a.template", []byte("[<HERE>]"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "a.out", []byte("stale content that is longer"), 0o644))

		err := NewBinder(fs, "<HERE>").Bind(Job{Template: "a.template", Output: "a.out", Content: "x"})
		require.NoError(t, err)

		data, err := afero.ReadFile(fs, "a.out")
		require.NoError(t, err)
		assert.Equal(t, "[x]", string(data))
	})
}

// failingFs refuses to create files under prefix.
type failingFs struct {
	afero.Fs
	prefix string
}

func (f failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if strings.HasPrefix(name, f.prefix) {
		return nil, os.ErrPermission
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func TestBinder_Bind(t *testing.T) {
	t.Run("Should keep every previous output when a later write fails", func(t *testing.T) {
		mem := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(mem, "a.template", []byte("[<HERE>]"), 0o644))
		require.NoError(t, afero.WriteFile(mem, "b.template", []byte("(<HERE>)"), 0o644))
		require.NoError(t, afero.WriteFile(mem, "out/a.h", []byte("previous a"), 0o644))

		fs := failingFs{Fs: mem, prefix: "out/b.cpp"}
		err := NewBinder(fs, "<HERE>").Bind(
			Job{Template: "a.template", Output: "out/a.h", Content: "new"},
			Job{Template: "b.template", Output: "out/b.cpp", Content: "new"},
		)
		require.ErrorIs(t, err, os.ErrPermission)

		data, err := afero.ReadFile(mem, "out/a.h")
		require.NoError(t, err)
		assert.Equal(t, "previous a", string(data))
		for _, name := range []string{"out/a.h.tmp", "out/b.cpp"} {
			exists, err := afero.Exists(mem, name)
			require.NoError(t, err)
			assert.False(t, exists, name)
		}
	})
}

func TestWriteListing(t *testing.T) {
	schema := parse(t, "struct Lamp { enum Type { T_A }; Type type FAIL; float col[3]; };")

	t.Run("Should list enums and fields as a table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteListing(&buf, schema, FormatTable))
		assert.Equal(t, "Enum: Type\nStructure Lamp\n\tType\tscalar\ttype\tFAIL\n\tfloat\tarray\tcol\tIGNO\n\n", buf.String())
	})

	t.Run("Should list the schema as YAML", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteListing(&buf, schema, FormatYAML))
		out := buf.String()
		assert.Contains(t, out, "enums:\n  - Type\n")
		assert.Contains(t, out, "policy: FAIL")
		assert.Contains(t, out, "shape: array")
		assert.Contains(t, out, "dims:\n")
	})

	t.Run("Should dump the schema with spew", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteListing(&buf, schema, FormatSpew))
		assert.Contains(t, buf.String(), `Name: (string) (len=4) "Lamp"`)
	})

	t.Run("Should reject unknown formats", func(t *testing.T) {
		assert.Error(t, WriteListing(&bytes.Buffer{}, schema, "xml"))
	})
}
