package main

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"wafacl/compiler"
	"wafacl/config"
	"wafacl/customrule"
	"wafacl/logging"
	"wafacl/preset"

	"github.com/rs/zerolog"
)

// errReported means the failure was already reported to the user and only the exit code is left.
var errReported = errors.New("failure already reported")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	vars       []string

	cfg      *config.Main
	logger   zerolog.Logger
	registry preset.Registry
	compiler compiler.Compiler
	closers  []func() error
}

// setup is the dependency injection composition root, run before every command.
func (a *app) setup(configExplicit bool) (err error) {
	if configExplicit {
		a.cfg, err = config.Load(a.configPath)
	} else {
		a.cfg, err = config.LoadIfExists(a.configPath)
	}
	if err != nil {
		return
	}

	level := a.cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.logger, err = logging.NewLogger(a.stderr, level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	a.registry, err = a.loadRegistry()
	if err != nil {
		return
	}

	loggers := []compiler.ResultsLogger{logging.NewZerologResultsLogger(a.logger)}
	if a.cfg.ReportFile != "" {
		var frl logging.ClosableResultsLogger
		frl, err = logging.NewFileResultsLogger(&logging.LogFileSystemImpl{}, a.logger, a.cfg.ReportFile)
		if err != nil {
			return fmt.Errorf("failed to open report file: %w", err)
		}
		a.closers = append(a.closers, frl.Close)
		loggers = append(loggers, frl)
	}

	rl := logging.NewMultiResultsLogger(loggers...)
	a.compiler = compiler.New(a.logger, a.registry, rl)
	if a.cfg.CacheEnabled() {
		a.compiler = compiler.NewCache(a.compiler, rl)
	}
	return
}

func (a *app) loadRegistry() (preset.Registry, error) {
	if len(a.cfg.PresetCatalogues) == 0 {
		return preset.Builtin(), nil
	}

	var catalogues [][]byte
	for _, path := range a.cfg.PresetCatalogues {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read preset catalogue: %w", err)
		}
		catalogues = append(catalogues, data)
	}

	r, err := preset.NewRegistry(catalogues...)
	if err != nil {
		return nil, fmt.Errorf("failed to load preset catalogues: %w", err)
	}

	a.logger.Debug().Strs("catalogues", a.cfg.PresetCatalogues).Strs("presets", r.Names()).Msg("Loaded preset catalogues")
	return r, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Error().Err(err).Msg("Error while closing")
		}
	}
}

// specLoader merges configured vars with --var flags. Flags win.
func (a *app) specLoader() (customrule.SpecLoader, error) {
	vars := make(map[string]string, len(a.cfg.Vars)+len(a.vars))
	for k, v := range a.cfg.Vars {
		vars[k] = v
	}

	for _, kv := range a.vars {
		i := strings.Index(kv, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid --var %q, expected name=value", kv)
		}
		vars[kv[:i]] = kv[i+1:]
	}

	return customrule.NewSpecLoader(a.logger, vars), nil
}

// compileFile loads and compiles a single specification file.
func (a *app) compileFile(loader customrule.SpecLoader, path string) (*compiler.Result, error) {
	spec, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}

	return a.compiler.Compile(path, spec)
}
