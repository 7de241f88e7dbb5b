// Command rb runs a build script: it discovers or is pointed at a .7b/.rb
// file, parses it into a block tree, and executes the requested targets
// (spec.md §6), mirroring the teacher's cli/main.go root-command shape
// (cobra, RunE, SilenceErrors, locked-down error formatting) without its
// vault/scrubber/contract-verification machinery, which has no spec.md
// component to serve (see DESIGN.md).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/builtin"
	"github.com/vernisaz/rb/internal/cliutil"
	"github.com/vernisaz/rb/internal/config"
	"github.com/vernisaz/rb/internal/interp"
	"github.com/vernisaz/rb/internal/lexer"
	"github.com/vernisaz/rb/internal/parser"
)

// Version is the rb build/version banner string (spec.md §12 — the
// original's exact marketing copy is an out-of-scope external collaborator,
// so only a minimal banner is printed).
const Version = "rb 0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		cliutil.FormatError(os.Stderr, err, cliutil.ShouldUseColor(false))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		file        string
		find        string
		findSet     bool
		verbose     bool
		diagnostic  bool
		quiet       bool
		forceBuild  bool
		dryRun      bool
		props       []string
		propFile    string
		targetHelp  bool
		showVersion bool
		noColor     bool
	)

	cmd := &cobra.Command{
		Use:           "rb [target...] [-- program-args...]",
		Short:         "rb executes targets defined in a build script",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println(Version)
				return nil
			}

			if dryRun && !verbose && !diagnostic {
				verbose = true
			}
			log := buildLogger(verbose, diagnostic, quiet)
			properties := config.NewProperties()
			if diagnostic {
				properties.Set("RUST_BACKTRACE", "1")
			}
			for _, assignment := range props {
				k, v, err := config.ParseAssignment(assignment)
				if err != nil {
					return &cliutil.CLIError{Kind: "property", Message: err.Error()}
				}
				properties.Set(k, v)
			}
			if propFile != "" {
				if err := properties.LoadFile(propFile); err != nil {
					return &cliutil.CLIError{Kind: "property", Message: fmt.Sprintf("could not load property file %q: %v", propFile, err)}
				}
			}

			targetNames, programArgs := splitDashArgs(cmd, args)

			scriptPath, scriptDir, err := resolveScript(file, find, findSet)
			if err != nil {
				return err
			}

			root, err := parseScript(scriptPath, log, noColor)
			if err != nil {
				return err
			}
			bindRootVars(root, scriptPath, scriptDir, programArgs, properties)
			if forceBuild {
				root.SetVar("~force-build-target~", boolVal(true))
			}
			if dryRun {
				root.SetVar("~dry-run~", boolVal(true))
			}

			ctx := builtin.NewContext(properties, log, Version)

			if targetHelp {
				printTargetHelp(root)
				return nil
			}

			in := interp.New(root, ctx)
			return in.Run(targetNames)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "script path (also -buildfile)")
	cmd.Flags().StringVar(&file, "buildfile", "", "script path")
	cmd.Flags().StringVarP(&find, "find", "s", "", "walk up from CWD looking for a script")
	cmd.Flags().Lookup("find").NoOptDefVal = "bee"
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	cmd.Flags().BoolVarP(&diagnostic, "diagnostic", "d", false, "enable debug logging")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	cmd.Flags().BoolVarP(&forceBuild, "force", "r", false, "force execution of targets regardless of dependency evaluation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log intended exec invocations without running them")
	cmd.Flags().StringArrayVarP(&props, "define", "D", nil, "set a property k=v")
	cmd.Flags().StringVar(&propFile, "prop", "", "load k=v lines into the property table (also -propertyfile)")
	cmd.Flags().StringVar(&propFile, "propertyfile", "", "load k=v lines into the property table")
	cmd.Flags().BoolVar(&targetHelp, "targethelp", false, "list targets and their descriptions (also -th)")
	cmd.Flags().BoolVar(&targetHelp, "th", false, "list targets and their descriptions")
	cmd.Flags().BoolVarP(&showVersion, "version", "V", false, "print the version banner")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colorized output")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		findSet = cmd.Flags().Changed("find")
		return nil
	}

	return cmd
}

// splitDashArgs implements spec.md §6's `-- program-args...` split: names
// before `--` are target names, everything after becomes ~args~.
func splitDashArgs(cmd *cobra.Command, args []string) (targetNames, programArgs []string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return args, nil
	}
	return args[:dash], args[dash:]
}

func buildLogger(verbose, diagnostic, quiet bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case diagnostic:
		level = slog.LevelDebug
	case verbose:
		level = slog.LevelInfo
	case quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveScript implements spec.md §6's -f/-s discovery modes and the
// auto-discovery fallback (any file in the CWD named bee*.rb/bee*.7b).
func resolveScript(file, find string, findSet bool) (path string, dir string, err error) {
	if file != "" {
		abs, err := filepath.Abs(file)
		if err != nil {
			return "", "", err
		}
		return abs, filepath.Dir(abs), nil
	}

	if findSet {
		name := find
		if name == "" {
			name = "bee"
		}
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", err
		}
		return walkUpForScript(cwd, name)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", "", err
	}
	if found, ok := discoverScript(cwd); ok {
		return found, cwd, nil
	}
	return "", "", &cliutil.CLIError{
		Kind:    "script",
		Message: "no build script found in the current directory",
		Hint:    "pass -f <path> or -s to search parent directories",
	}
}

// walkUpForScript walks from dir toward the filesystem root looking for a
// script named name (or name-prefixed) with a .7b/.rb extension, per
// original_source/src/main.rs's -s/-find argument handling (SPEC_FULL.md §12).
func walkUpForScript(dir, name string) (path string, scriptDir string, err error) {
	for {
		entries, readErr := os.ReadDir(dir)
		if readErr == nil {
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				n := e.Name()
				if strings.HasPrefix(n, name) && (strings.HasSuffix(n, ".7b") || strings.HasSuffix(n, ".rb")) {
					return filepath.Join(dir, n), dir, nil
				}
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", &cliutil.CLIError{
				Kind:    "script",
				Message: fmt.Sprintf("no script named %q* found in %q or any parent directory", name, dir),
			}
		}
		dir = parent
	}
}

func discoverScript(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasPrefix(n, "bee") && (strings.HasSuffix(n, ".rb") || strings.HasSuffix(n, ".7b")) {
			return filepath.Join(dir, n), true
		}
	}
	return "", false
}

func parseScript(path string, log *slog.Logger, noColor bool) (*block.Block, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &cliutil.CLIError{Kind: "script", Message: fmt.Sprintf("could not read %q: %v", path, err)}
	}
	lex := lexer.New(src, log)
	p := parser.New(lex, filepath.Dir(path))
	root := p.Parse()
	if len(p.Errors) > 0 {
		cliutil.FormatParseErrors(os.Stderr, p.Errors, cliutil.ShouldUseColor(noColor))
	}
	return root, nil
}

// bindRootVars sets the predefined root-scope variables (spec.md §6).
func bindRootVars(root *block.Block, scriptPath, scriptDir string, args []string, props *config.Properties) {
	sep := ":"
	if os.PathSeparator == '\\' {
		sep = ";"
	}
	root.SetVar("~os~", strVal(runtimeGOOS()))
	root.SetVar("~separator~", strVal(string(os.PathSeparator)))
	root.SetVar("~/~", strVal(string(os.PathSeparator)))
	root.SetVar("~path_separator~", strVal(sep))
	root.SetVar("~cwd~", dirVal(scriptDir))
	root.SetVar("~script~", fileVal(scriptPath))
	root.SetVar("~args~", arrVal(args))
}
