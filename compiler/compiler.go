package compiler

import (
	"errors"
	"fmt"
	"strings"

	"wafacl/consistency"
	"wafacl/customrule"
	"wafacl/emitter"
	"wafacl/preset"
	"wafacl/priority"
	"wafacl/waf"

	"github.com/rs/zerolog"
)

// Compiler turns a specification into a validated, emitted rule set.
type Compiler interface {
	// Compile runs the full pipeline. Source names the specification in logs. On failure the
	// error is a *StageError and no result is returned.
	Compile(source string, spec *customrule.Spec) (*Result, error)
}

// Result is a successful compilation. It must be treated as read-only, since a cache may hand the
// same Result to several callers.
type Result struct {
	RuleSet  *waf.CompiledRuleSet
	Output   []byte
	Digest   string
	Warnings []consistency.Warning
}

// ResultsLogger is where the compiler reports the outcome of each compilation.
type ResultsLogger interface {
	Compiled(source string, result *Result)
	RedundantRule(source string, warning consistency.Warning)
	CompilationFailed(source string, err *StageError)
}

type compilerImpl struct {
	logger        zerolog.Logger
	registry      preset.Registry
	resultsLogger ResultsLogger
	checks        []consistency.Check
}

// New creates a compiler resolving presets from registry. The results logger may be nil. Without
// checks, consistency.DefaultChecks are used.
func New(logger zerolog.Logger, registry preset.Registry, rl ResultsLogger, checks ...consistency.Check) Compiler {
	return &compilerImpl{
		logger:        logger,
		registry:      registry,
		resultsLogger: rl,
		checks:        checks,
	}
}

func (c *compilerImpl) Compile(source string, spec *customrule.Spec) (result *Result, err error) {
	logger := c.logger.With().Str("source", source).Logger()

	result, serr := c.compile(logger, spec)
	if serr != nil {
		logger.Debug().Err(serr.Err).Str("stage", serr.Stage.String()).Msg("Compilation failed")
		report(c.resultsLogger, source, nil, serr)
		return nil, serr
	}

	report(c.resultsLogger, source, result, nil)
	return
}

// report sends the outcome of one compilation of source to rl, if there is one.
func report(rl ResultsLogger, source string, result *Result, err error) {
	if rl == nil {
		return
	}

	if err != nil {
		var serr *StageError
		if errors.As(err, &serr) {
			rl.CompilationFailed(source, serr)
		}
		return
	}

	for _, w := range result.Warnings {
		rl.RedundantRule(source, w)
	}
	rl.Compiled(source, result)
}

func (c *compilerImpl) compile(logger zerolog.Logger, spec *customrule.Spec) (*Result, *StageError) {
	if spec == nil {
		return nil, &StageError{Stage: Parsed, Err: fmt.Errorf("no specification")}
	}

	// Received -> Parsed
	rules, sets, err := customrule.Normalize(spec)
	if err != nil {
		return nil, &StageError{Stage: Parsed, Err: err}
	}
	defaultAction, err := waf.ParseDefaultAction(spec.DefaultAction)
	if err != nil {
		return nil, &StageError{Stage: Parsed, Err: &waf.MissingDefaultActionError{Reason: err.Error()}}
	}
	logger.Debug().Int("rules", len(rules)).Int("ipSets", len(sets)).Msg("Parsed specification")

	// Parsed -> Expanded
	refs := customrule.NormalizePresetRefs(spec.Presets)
	exp, err := preset.Expand(c.registry, refs)
	if err != nil {
		return nil, &StageError{Stage: Expanded, Err: err}
	}

	rules, err = merge(rules, exp.Rules)
	if err != nil {
		return nil, &StageError{Stage: Expanded, Err: err}
	}

	if defaultAction == "" {
		defaultAction, err = presetDefault(exp.Defaults)
		if err != nil {
			return nil, &StageError{Stage: Expanded, Err: err}
		}
	}
	logger.Debug().Strs("presets", refs).Int("rules", len(rules)).Str("defaultAction", string(defaultAction)).Msg("Expanded presets")

	// Expanded -> PriorityAssigned
	rules, err = priority.Assign(rules)
	if err != nil {
		return nil, &StageError{Stage: PriorityAssigned, Err: err}
	}

	// PriorityAssigned -> Validated
	set := &waf.CompiledRuleSet{
		DefaultAction: defaultAction,
		Rules:         rules,
		IPSets:        sets,
	}
	warnings, err := consistency.Validate(set, c.checks...)
	if err != nil {
		return nil, &StageError{Stage: Validated, Err: err}
	}

	// Validated -> Emitted
	out, err := emitter.Emit(set)
	if err != nil {
		return nil, &StageError{Stage: Emitted, Err: err}
	}

	result := &Result{
		RuleSet:  set,
		Output:   out,
		Digest:   emitter.Digest(out),
		Warnings: warnings,
	}
	logger.Debug().Str("digest", result.Digest).Int("warnings", len(warnings)).Msg("Emitted rule set")
	return result, nil
}

// merge appends the expanded preset rules after the user's rules. Names must stay unique.
func merge(user []waf.Rule, expanded []waf.Rule) (rules []waf.Rule, err error) {
	seen := make(map[string]bool, len(user)+len(expanded))
	rules = make([]waf.Rule, 0, len(user)+len(expanded))
	for _, r := range append(append([]waf.Rule(nil), user...), expanded...) {
		if seen[r.Name] {
			return nil, &waf.MalformedRuleError{Rule: r.Name, Field: "name", Reason: "rule name collides with an expanded preset rule"}
		}
		seen[r.Name] = true
		rules = append(rules, r)
	}
	return
}

// presetDefault picks the default action when the specification gives none. Every expanded preset
// has to agree on it.
func presetDefault(defaults []preset.Default) (d waf.DefaultAction, err error) {
	if len(defaults) == 0 {
		err = &waf.MissingDefaultActionError{Reason: "no default_action given and no preset supplies one"}
		return
	}

	d = defaults[0].Action
	for _, other := range defaults[1:] {
		if other.Action != d {
			var parts []string
			for _, pd := range defaults {
				parts = append(parts, fmt.Sprintf("%s=%s", pd.Preset, pd.Action))
			}
			err = &waf.MissingDefaultActionError{Reason: "presets disagree on the default action (" + strings.Join(parts, ", ") + "), set default_action explicitly"}
			return "", err
		}
	}
	return
}
