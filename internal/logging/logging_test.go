package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in        string
		want      Level
		wantCount int
		wantErr   bool
	}{
		{"error", LevelError, 0, false},
		{"WARN", LevelWarn, 0, false},
		{"warning", LevelWarn, 0, false},
		{"info", LevelInfo, 1, false},
		{"debug", LevelDebug, 2, false},
		{"trace", LevelTrace, 4, false},
		{"loud", LevelWarn, 0, true},
	}

	SetVerbosity(0)
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, count, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestSetVerbosity_Clamps(t *testing.T) {
	defer SetVerbosity(0)

	SetVerbosity(-3)
	assert.Equal(t, 0, Verbosity())
	assert.Equal(t, "warn", LevelName())

	SetVerbosity(2)
	assert.Equal(t, "debug", LevelName())

	SetVerbosity(9)
	assert.Equal(t, 4, Verbosity())
	assert.Equal(t, "trace", LevelName())
}

func TestLogf_RespectsVerbosity(t *testing.T) {
	prev := L()
	defer SetLogger(prev)
	defer SetVerbosity(0)

	core, logs := observer.New(traceLevel)
	SetLogger(zap.New(core))

	SetVerbosity(0)
	Infof("hidden %d", 1)
	Warnf("shown %d", 2)
	assert.Equal(t, 1, logs.Len())

	SetVerbosity(4)
	Tracef("trace %s", "line")
	entries := logs.TakeAll()
	require.Len(t, entries, 2)
	assert.Equal(t, "shown 2", entries[0].Message)
	assert.Equal(t, "trace line", entries[1].Message)
}

func TestConfigure(t *testing.T) {
	defer SetVerbosity(0)
	prev := L()
	defer SetLogger(prev)

	require.NoError(t, Configure("json", "info"))
	assert.Equal(t, "info", LevelName())
	assert.Error(t, Configure("xml", ""))
	assert.Error(t, Configure("console", "loud"))
}
