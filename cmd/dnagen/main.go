// dnagen reads the annotated structure header of the Blender importer and
// generates the Structure::Convert specializations that map any file DNA
// onto our DNA.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"dnagen/internal/config"
	"dnagen/internal/generator"
	"dnagen/internal/logger"
)

func main() {
	if err := run(context.Background(), afero.NewOsFs(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, fs afero.Fs, args []string, stdout, stderr io.Writer) error {
	root := rootCmd(fs, stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// flags holds every command-line setting; empty values leave the config
// untouched.
type flags struct {
	configFile string
	logLevel   string
	logJSON    bool

	input         string
	declTemplate  string
	declOutput    string
	implTemplate  string
	implOutput    string
	marker        string
	strict        bool
	skipMethods   bool
	dump          bool
	listingFormat string
}

func rootCmd(fs afero.Fs, stdout, stderr io.Writer) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "dnagen",
		Short: "Generate Blender DNA converters from BlenderScene.h",
		Long: `dnagen parses the structure declarations of BlenderScene.h and writes
BlenderSceneGen.h (Convert declarations) and BlenderScene.cpp (Convert
bodies and DNA::RegisterConverters) from their templates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logger.LogLevel(f.logLevel)
			if !level.IsValid() {
				return fmt.Errorf("unknown log level %q", f.logLevel)
			}
			cmd.SetContext(logger.ContextWithLogger(cmd.Context(), logger.NewLogger(&logger.Config{
				Level:      level,
				Output:     stderr,
				JSON:       f.logJSON,
				TimeFormat: "15:04:05",
			})))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), fs, f, stderr)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", "", "Config file (YAML/JSON)")
	pf.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error, disabled)")
	pf.BoolVar(&f.logJSON, "log-json", false, "Log as JSON")
	pf.StringVarP(&f.input, "input", "i", "", "Structure header (default "+config.DefaultInput+")")
	pf.BoolVar(&f.strict, "strict", false, "Reject structures defined more than once")
	pf.BoolVar(&f.skipMethods, "skip-methods", false, "Skip member functions instead of failing")

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write the declarations and implementation files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), fs, f, stderr)
		},
	}
	gf := generate.Flags()
	gf.StringVar(&f.declTemplate, "decl-template", "", "Declarations template")
	gf.StringVar(&f.declOutput, "decl-output", "", "Declarations output file")
	gf.StringVar(&f.implTemplate, "impl-template", "", "Implementation template")
	gf.StringVar(&f.implOutput, "impl-output", "", "Implementation output file")
	gf.StringVar(&f.marker, "marker", "", "Placeholder marker in both templates")
	gf.BoolVar(&f.dump, "dump", false, "Dump the parsed structures before generating")

	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Parse the header and list enums and structures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(fs, f)
			if err != nil {
				return err
			}
			schema, err := generator.New(cfg).Load(cmd.Context(), fs)
			if err != nil {
				return err
			}
			return generator.WriteListing(stdout, schema, f.listingFormat)
		},
	}
	inspect.Flags().StringVarP(&f.listingFormat, "format", "f", generator.FormatTable, "Output format (table, yaml, spew)")

	root.AddCommand(generate, inspect)
	return root
}

func runGenerate(ctx context.Context, fs afero.Fs, f *flags, stderr io.Writer) error {
	cfg, err := loadConfig(fs, f)
	if err != nil {
		return err
	}

	gen := generator.New(cfg)
	if err := gen.LoadStatements(); err != nil {
		return err
	}
	schema, err := gen.Load(ctx, fs)
	if err != nil {
		return err
	}
	if f.dump {
		if err := generator.WriteListing(stderr, schema, generator.FormatSpew); err != nil {
			return err
		}
	}
	return gen.Write(ctx, fs, schema)
}

// loadConfig layers defaults, the config file and flags.
func loadConfig(fs afero.Fs, f *flags) (*config.Config, error) {
	cfg := config.New()
	if f.configFile != "" {
		if err := cfg.LoadFile(fs, f.configFile); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	// Apply CLI overrides
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.Input, f.input)
	override(&cfg.Declarations.Template, f.declTemplate)
	override(&cfg.Declarations.Output, f.declOutput)
	override(&cfg.Implementation.Template, f.implTemplate)
	override(&cfg.Implementation.Output, f.implOutput)
	override(&cfg.Marker, f.marker)
	if f.strict {
		cfg.Options.StrictDuplicates = true
	}
	if f.skipMethods {
		cfg.Options.SkipMethods = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
