package testutils

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// NewTestLogger creates a zerolog.Logger that writes to testing.T's log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: testWriter{t}, TimeFormat: time.RFC3339, NoColor: true}).With().Timestamp().Caller().Logger()
}

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (n int, err error) {
	tw.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

// LogBuffer collects JSON log lines so tests can assert on what was logged.
type LogBuffer struct {
	mux sync.Mutex
	buf bytes.Buffer
}

// NewBufferLogger creates a JSON zerolog.Logger at debug level writing into the returned buffer.
func NewBufferLogger() (zerolog.Logger, *LogBuffer) {
	b := &LogBuffer{}
	return zerolog.New(b).Level(zerolog.DebugLevel), b
}

func (b *LogBuffer) Write(p []byte) (n int, err error) {
	b.mux.Lock()
	defer b.mux.Unlock()
	return b.buf.Write(p)
}

// Lines returns the non-empty lines logged so far.
func (b *LogBuffer) Lines() (lines []string) {
	b.mux.Lock()
	defer b.mux.Unlock()

	for _, l := range strings.Split(b.buf.String(), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return
}
