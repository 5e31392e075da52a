package internal

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"ERROR", LogLevelError},
		{"warn", LogLevelWarn},
		{" debug ", LogLevelDebug},
		{"TRACE", LogLevelTrace},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogLevel(tt.in), tt.in)
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	l := NewLogger(LogLevelWarn)
	l.Info("hidden %d", 1)
	l.Warn("shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN] shown 2")

	l.SetLevel(LogLevelDebug)
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "[DEBUG] now visible")
}

func TestComponentLoggerSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	root := NewLogger(LogLevelInfo)
	sink := root.With("tabular")
	sink.Info("wrote %s", "global_full.csv")
	sink.Debug("hidden")
	assert.Contains(t, buf.String(), "[INFO] [tabular] wrote global_full.csv")
	assert.NotContains(t, buf.String(), "hidden")

	root.SetLevel(LogLevelDebug)
	assert.True(t, sink.Enabled(LogLevelDebug))
	sink.With("codec").Debug("now visible")
	assert.Contains(t, buf.String(), "[DEBUG] [codec] now visible")
}
