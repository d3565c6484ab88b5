package main

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"wafacl/compiler"
	"wafacl/customrule"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wafc",
		Short:         "Compile Web ACL rule specifications into a provider-agnostic rule set",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Flags().Changed("config"))
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVarP(&a.configPath, "config", "c", "wafc.yaml", "config yaml path")
	fs.StringVar(&a.logLevel, "loglevel", "", "sets log level. Can be one of: debug, info, warn, error, fatal, panic.")

	cmd.AddCommand(
		newCompileCmd(a),
		newValidateCmd(a),
		newPresetsCmd(a),
		newDiffCmd(a),
	)
	return cmd
}

type compileOptions struct {
	out    string
	outDir string
}

func newCompileCmd(a *app) *cobra.Command {
	opts := compileOptions{}
	cmd := &cobra.Command{
		Use:   "compile SPEC...",
		Short: "Compile specifications and write their IR",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(a, opts, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.out, "out", "o", "", "write the IR of a single specification to this file instead of stdout")
	fs.StringVar(&opts.outDir, "out-dir", "", "write each IR to <dir>/<spec name>.json")
	fs.StringArrayVar(&a.vars, "var", nil, "set an HCL variable, name=value (repeatable)")
	return cmd
}

func runCompile(a *app, opts compileOptions, specs []string) error {
	loader, err := a.specLoader()
	if err != nil {
		return err
	}

	outDir := opts.outDir
	if outDir == "" {
		outDir = a.cfg.OutDir
	}

	if len(specs) == 1 && opts.outDir == "" {
		r, err := a.compileFile(loader, specs[0])
		if err != nil {
			return errReported
		}
		if opts.out == "" {
			_, err = a.stdout.Write(r.Output)
			return err
		}
		return ioutil.WriteFile(opts.out, r.Output, 0644)
	}

	if opts.out != "" {
		return fmt.Errorf("--out takes a single specification, use --out-dir for several")
	}
	if outDir == "" {
		return fmt.Errorf("compiling several specifications needs --out-dir or out_dir in the config")
	}

	targets, err := outputPaths(outDir, specs)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := range specs {
		spec, target := specs[i], targets[i]
		g.Go(func() error {
			r, err := a.compileFile(loader, spec)
			if err != nil {
				return errReported
			}
			return ioutil.WriteFile(target, r.Output, 0644)
		})
	}
	return g.Wait()
}

// outputPaths maps each specification to <dir>/<base name>.json. Two specifications with the same
// base name would overwrite each other, so that is an error.
func outputPaths(dir string, specs []string) ([]string, error) {
	seen := make(map[string]string, len(specs))
	targets := make([]string, len(specs))
	for i, s := range specs {
		base := filepath.Base(s)
		name := strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
		if other, ok := seen[name]; ok {
			return nil, fmt.Errorf("specifications %s and %s would both be written to %s", other, s, name)
		}
		seen[name] = s
		targets[i] = filepath.Join(dir, name)
	}
	return targets, nil
}

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate SPEC...",
		Short: "Compile specifications and report problems without writing IR",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(a, args)
		},
	}
	cmd.Flags().StringArrayVar(&a.vars, "var", nil, "set an HCL variable, name=value (repeatable)")
	return cmd
}

func runValidate(a *app, specs []string) error {
	loader, err := a.specLoader()
	if err != nil {
		return err
	}

	results := make([]*compiler.Result, len(specs))
	errs := make([]error, len(specs))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := range specs {
		i := i
		g.Go(func() error {
			results[i], errs[i] = a.compileFile(loader, specs[i])
			return nil
		})
	}
	g.Wait()

	failed := 0
	for i, s := range specs {
		if errs[i] != nil {
			failed++
			fmt.Fprintf(a.stdout, "FAIL %s: %v\n", s, errs[i])
			continue
		}

		r := results[i]
		fmt.Fprintf(a.stdout, "ok   %s: %d rules, default %s, digest %s\n", s, len(r.RuleSet.Rules), r.RuleSet.DefaultAction, r.Digest)
		for _, w := range r.Warnings {
			fmt.Fprintf(a.stdout, "     warning: %s\n", w)
		}
	}

	if failed > 0 {
		return errReported
	}
	return nil
}

func newPresetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "presets [NAME]",
		Short: "List the registered presets, or print one preset compiled on its own",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runListPresets(a)
			}
			return runShowPreset(a, args[0])
		},
	}
}

func runListPresets(a *app) error {
	for _, name := range a.registry.Names() {
		p, err := a.registry.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%-22s default=%-5s rules=%d  %s\n", p.Name, p.DefaultAction, len(p.Rules), p.Description)
	}
	return nil
}

func runShowPreset(a *app, name string) error {
	r, err := a.compiler.Compile("preset:"+name, &customrule.Spec{Presets: []string{name}})
	if err != nil {
		return errReported
	}

	_, err = a.stdout.Write(r.Output)
	return err
}

func newDiffCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Show how the compiled IR of NEW differs from OLD",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(a, args[0], args[1])
		},
	}
	cmd.Flags().StringArrayVar(&a.vars, "var", nil, "set an HCL variable, name=value (repeatable)")
	return cmd
}

func runDiff(a *app, oldPath string, newPath string) error {
	loader, err := a.specLoader()
	if err != nil {
		return err
	}

	oldResult, err := a.compileFile(loader, oldPath)
	if err != nil {
		return errReported
	}
	newResult, err := a.compileFile(loader, newPath)
	if err != nil {
		return errReported
	}

	if bytes.Equal(oldResult.Output, newResult.Output) {
		fmt.Fprintln(a.stdout, "No changes detected.")
		return nil
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(oldResult.Output)),
		B:        difflib.SplitLines(string(newResult.Output)),
		FromFile: oldPath,
		ToFile:   newPath,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, text)

	return errReported
}
