// Package config provides configuration handling for dnagen.
package config

// Default file locations, relative to the working directory of the run.
const (
	DefaultInput                  = "../../code/BlenderScene.h"
	DefaultDeclarationsOutput     = "../../code/BlenderSceneGen.h"
	DefaultImplementationOutput   = "../../code/BlenderScene.cpp"
	DefaultDeclarationsTemplate   = "BlenderSceneGen.h.template"
	DefaultImplementationTemplate = "BlenderScene.cpp.template"
	DefaultMarker                 = "<HERE>"
)

// DefaultStatements returns the statement shapes of the Blender importer
// runtime. Each is a text/template; field statements receive Policy,
// DestCast, Name and DNAName, structure statements receive Name.
func DefaultStatements() Statements {
	return Statements{
		Signature: `
template <> void Structure :: Convert<{{.Name}}> (
    {{.Name}}& dest,
    const FileDatabase& db
    ) const
`,
		Separator: `//{{repeat 80 "-"}}`,
		Pointer: `
    ReadFieldPtr<{{.Policy}}>({{.DestCast}}dest.{{.Name}},{{quote .DNAName}},db);`,
		Array: `
    ReadFieldArray<{{.Policy}}>({{.DestCast}}dest.{{.Name}},{{quote .DNAName}},db);`,
		Array2D: `
    ReadFieldArray2<{{.Policy}}>({{.DestCast}}dest.{{.Name}},{{quote .DNAName}},db);`,
		Field: `
    ReadField<{{.Policy}}>({{.DestCast}}dest.{{.Name}},{{quote .DNAName}},db);`,
		Trailer: "\n\n\tdb.reader->IncPtr(size);\n",
		Registry: `
void DNA::RegisterConverters() `,
		RegistryEntry: `
    converters[{{quote .Name}}] = DNA::FactoryPair( &Structure::Allocate<{{.Name}}>, &Structure::Convert<{{.Name}}> );`,
		EnumCast: "(int&)",
	}
}

// DefaultPolicies returns the runtime error policy tokens.
func DefaultPolicies() Policies {
	return Policies{
		Ignore: "ErrorPolicy_Igno",
		Warn:   "ErrorPolicy_Warn",
		Fail:   "ErrorPolicy_Fail",
	}
}

// DefaultOptions returns default parsing options.
func DefaultOptions() Options {
	return Options{
		StrictDuplicates: false,
		SkipMethods:      false,
	}
}
