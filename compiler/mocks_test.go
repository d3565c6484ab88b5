package compiler

import (
	"sync"
	"sync/atomic"
	"time"

	"wafacl/consistency"
	"wafacl/customrule"
	"wafacl/waf"
)

type mockResultsLogger struct {
	mux       sync.Mutex
	compiled  []string
	redundant []consistency.Warning
	failed    []*StageError
}

func (l *mockResultsLogger) Compiled(source string, result *Result) {
	l.mux.Lock()
	defer l.mux.Unlock()
	l.compiled = append(l.compiled, source)
}

func (l *mockResultsLogger) RedundantRule(source string, warning consistency.Warning) {
	l.mux.Lock()
	defer l.mux.Unlock()
	l.redundant = append(l.redundant, warning)
}

func (l *mockResultsLogger) CompilationFailed(source string, err *StageError) {
	l.mux.Lock()
	defer l.mux.Unlock()
	l.failed = append(l.failed, err)
}

func (l *mockResultsLogger) Sources() []string {
	l.mux.Lock()
	defer l.mux.Unlock()
	return append([]string(nil), l.compiled...)
}

// countingCompiler returns a fresh result per call and counts how often it ran. Like the real
// compiler it reports what it ran to rl.
type countingCompiler struct {
	calls int32
	delay time.Duration
	err   error
	rl    ResultsLogger
}

func (c *countingCompiler) Compile(source string, spec *customrule.Spec) (*Result, error) {
	atomic.AddInt32(&c.calls, 1)
	time.Sleep(c.delay)
	if c.err != nil {
		report(c.rl, source, nil, c.err)
		return nil, c.err
	}

	r := &Result{
		RuleSet: &waf.CompiledRuleSet{DefaultAction: waf.DefaultAction(spec.DefaultAction)},
		Output:  []byte(spec.DefaultAction),
	}
	report(c.rl, source, r, nil)
	return r, nil
}

func (c *countingCompiler) Calls() int {
	return int(atomic.LoadInt32(&c.calls))
}
