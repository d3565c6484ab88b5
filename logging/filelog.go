package logging

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"time"

	"wafacl/compiler"
	"wafacl/consistency"
	"wafacl/waf"

	"github.com/rs/zerolog"
)

// ClosableResultsLogger is a results logger holding a file open until closed.
type ClosableResultsLogger interface {
	compiler.ResultsLogger
	Close() error
}

type filelogResultsLogger struct {
	file         LogFile
	logger       zerolog.Logger
	writelogline chan []byte
	writeDone    chan bool
	now          func() time.Time
}

// NewFileResultsLogger creates a results logger that appends one JSON line per compilation event to the report file at path.
func NewFileResultsLogger(fileSystem LogFileSystem, logger zerolog.Logger, path string) (ClosableResultsLogger, error) {
	return newFileResultsLogger(fileSystem, logger, path, time.Now)
}

func newFileResultsLogger(fileSystem LogFileSystem, logger zerolog.Logger, path string, now func() time.Time) (*filelogResultsLogger, error) {
	r := &filelogResultsLogger{logger: logger, now: now}

	dir := filepath.Dir(path)
	err := fileSystem.MkDir(dir)
	if err != nil {
		logger.Error().Err(err).Str("path", dir).Msg("Failed to create the report directory")
		return nil, err
	}

	r.file, err = fileSystem.Open(path)
	if err != nil {
		logger.Error().Err(err).Str("file", path).Msg("Failed to open the report file")
		return nil, err
	}

	// Single writer so concurrent compilations never interleave lines.
	r.writelogline = make(chan []byte)
	r.writeDone = make(chan bool)
	go func() {
		for v := range r.writelogline {
			if err := r.file.Append(append(v, '\n')); err != nil {
				r.logger.Error().Err(err).Msg("Error while appending to the report file")
			}
			r.writeDone <- true
		}
	}()

	return r, nil
}

func (l *filelogResultsLogger) Compiled(source string, result *compiler.Result) {
	l.write(categoryResult, compilationLogEntryProps{
		Source:        source,
		Outcome:       outcomeCompiled,
		Stage:         compiler.Emitted.String(),
		Digest:        result.Digest,
		DefaultAction: string(result.RuleSet.DefaultAction),
		Rules:         len(result.RuleSet.Rules),
	})
}

func (l *filelogResultsLogger) RedundantRule(source string, warning consistency.Warning) {
	l.write(categoryWarning, compilationLogEntryProps{
		Source:    source,
		Outcome:   outcomeWarning,
		Stage:     compiler.Validated.String(),
		Rule:      warning.Rule,
		OtherRule: warning.Other,
		Message:   warning.Message,
	})
}

func (l *filelogResultsLogger) CompilationFailed(source string, err *compiler.StageError) {
	l.write(categoryResult, compilationLogEntryProps{
		Source:    source,
		Outcome:   outcomeFailed,
		Stage:     err.Stage.String(),
		Message:   err.Err.Error(),
		ErrorType: ErrorType(err),
	})
}

func (l *filelogResultsLogger) write(category string, props compilationLogEntryProps) {
	lg := &compilationLogEntry{
		Time:          l.now().UTC().Format(time.RFC3339),
		OperationName: operationName,
		Category:      category,
		Properties:    props,
	}

	bb, err := json.Marshal(lg)
	if err != nil {
		l.logger.Error().Err(err).Msg("Error while marshaling JSON report entry")
		return
	}

	l.writelogline <- bb
	<-l.writeDone
}

func (l *filelogResultsLogger) Close() error {
	close(l.writelogline)
	return l.file.Close()
}

// ErrorType names the taxonomy error behind err, or "Error" when it is none of them.
func ErrorType(err error) string {
	var (
		malformed   *waf.MalformedRuleError
		unknown     *waf.UnknownPresetError
		collision   *waf.PriorityCollisionError
		unreachable *waf.UnreachableRuleError
		missing     *waf.MissingDefaultActionError
	)

	switch {
	case errors.As(err, &malformed):
		return "MalformedRuleError"
	case errors.As(err, &unknown):
		return "UnknownPresetError"
	case errors.As(err, &collision):
		return "PriorityCollisionError"
	case errors.As(err, &unreachable):
		return "UnreachableRuleError"
	case errors.As(err, &missing):
		return "MissingDefaultActionError"
	}
	return "Error"
}
