package logging

import (
	"wafacl/compiler"
	"wafacl/consistency"

	"github.com/rs/zerolog"
)

// NewZerologResultsLogger creates a results logger that reports compilation outcomes through zerolog.
func NewZerologResultsLogger(logger zerolog.Logger) compiler.ResultsLogger {
	return &zerologResultsLogger{logger: logger}
}

type zerologResultsLogger struct {
	logger zerolog.Logger
}

func (l *zerologResultsLogger) Compiled(source string, result *compiler.Result) {
	l.logger.Info().
		Str("source", source).
		Str("digest", result.Digest).
		Str("defaultAction", string(result.RuleSet.DefaultAction)).
		Int("rules", len(result.RuleSet.Rules)).
		Int("warnings", len(result.Warnings)).
		Msg("Compiled rule set")
}

func (l *zerologResultsLogger) RedundantRule(source string, warning consistency.Warning) {
	l.logger.Warn().
		Str("source", source).
		Str("rule", warning.Rule).
		Str("otherRule", warning.Other).
		Msg(warning.Message)
}

func (l *zerologResultsLogger) CompilationFailed(source string, err *compiler.StageError) {
	l.logger.Error().
		Err(err.Err).
		Str("source", source).
		Str("stage", err.Stage.String()).
		Str("errorType", ErrorType(err)).
		Msg("Compilation failed")
}

type multiResultsLogger []compiler.ResultsLogger

// NewMultiResultsLogger forwards every event to each of the given loggers in order.
func NewMultiResultsLogger(loggers ...compiler.ResultsLogger) compiler.ResultsLogger {
	return multiResultsLogger(loggers)
}

func (m multiResultsLogger) Compiled(source string, result *compiler.Result) {
	for _, l := range m {
		l.Compiled(source, result)
	}
}

func (m multiResultsLogger) RedundantRule(source string, warning consistency.Warning) {
	for _, l := range m {
		l.RedundantRule(source, warning)
	}
}

func (m multiResultsLogger) CompilationFailed(source string, err *compiler.StageError) {
	for _, l := range m {
		l.CompilationFailed(source, err)
	}
}
