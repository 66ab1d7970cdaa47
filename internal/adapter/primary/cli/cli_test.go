package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamvol/internal/domain"
	"streamvol/internal/logging"
)

const testPolicy = `
streams:
  - name: music
    type: music
    strategy: media
    index_min: 0
    index_max: 100
    curves:
      speaker: [{index: 0, db: -60.0}, {index: 50, db: -20.0}, {index: 100, db: 0.0}]
`

const headsetDefaultPolicy = `
default_category: headset
streams:
  - name: music
    type: music
    strategy: media
    index_min: 0
    index_max: 100
    curves:
      speaker: [{index: 0, db: -60.0}, {index: 100, db: 0.0}]
      headset: [{index: 0, db: -40.0}, {index: 100, db: -20.0}]
  - name: ring
    type: ring
    strategy: sonification
    index_min: 0
    index_max: 7
    curves:
      speaker: [{index: 0, db: -30.0}, {index: 7, db: 0.0}]
`

type testEnv struct {
	config string
	policy string
}

func newTestEnv(t *testing.T, policy string) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		config: filepath.Join(dir, "config.yaml"),
		policy: filepath.Join(dir, "policy.yaml"),
	}
	cfg := "output:\n  controller: noop\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0o644))
	if policy != "" {
		require.NoError(t, os.WriteFile(env.policy, []byte(policy), 0o644))
	}
	t.Cleanup(func() {
		shellVerbosity = 0
		logging.SetVerbosity(0)
	})
	return env
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	full := append([]string{"--config", e.config, "--policy", e.policy}, args...)
	err := executeArgs(full, &out)
	return out.String(), err
}

func TestStreamsCmd(t *testing.T) {
	env := newTestEnv(t, testPolicy)

	out, err := env.run(t, "streams")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "music")
	assert.Contains(t, out, "0..100")
	assert.Contains(t, out, "speaker")
}

func TestDBCmd(t *testing.T) {
	env := newTestEnv(t, testPolicy)

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr error
	}{
		{"interpolated", []string{"db", "music", "-c", "speaker", "-i", "25"}, "-40.00 dB", nil},
		{"clamped", []string{"db", "music", "-i", "150"}, "(clamped from 150)", nil},
		{"fallback", []string{"db", "music", "-c", "headset", "-i", "25"}, "default category used", nil},
		{"unknown stream", []string{"db", "alarm", "-i", "1"}, "", domain.ErrNotFound},
		{"unknown category", []string{"db", "music", "-c", "hdmi", "-i", "1"}, "", domain.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.run(t, tt.args...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}

	_, err := env.run(t, "db", "music")
	assert.Error(t, err, "--index is required")
}

func TestDBCmd_OmittedCategoryUsesPolicyDefault(t *testing.T) {
	env := newTestEnv(t, headsetDefaultPolicy)

	out, err := env.run(t, "db", "music", "-i", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "music headset index=50")
	assert.Contains(t, out, "-30.00 dB")
}

func TestPolicyCheck_ReportsMissingFallback(t *testing.T) {
	env := newTestEnv(t, headsetDefaultPolicy)

	out, err := env.run(t, "policy", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "music has no earpiece curve, headset is used")
	assert.Contains(t, out, "ring has no earpiece curve and no headset fallback, resolution fails")
	assert.NotContains(t, out, "ring has no earpiece curve, headset is used")
	assert.Contains(t, out, "policy ok: 2 streams")
}

func TestCurveCmd(t *testing.T) {
	env := newTestEnv(t, testPolicy)

	out, err := env.run(t, "curve", "music")
	require.NoError(t, err)
	assert.Contains(t, out, "music (music, strategy media, index 0..100)")
	assert.Contains(t, out, "speaker:")
	assert.Contains(t, out, "-20.00 dB")

	_, err = env.run(t, "curve", "music", "-c", "earpiece")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyCmd(t *testing.T) {
	env := newTestEnv(t, testPolicy)

	out, err := env.run(t, "apply", "music", "-i", "75")
	require.NoError(t, err)
	assert.Contains(t, out, "-10.00 dB")
}

func TestPolicyInitAndCheck(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.run(t, "policy", "init")
	require.NoError(t, err)
	assert.Contains(t, out, env.policy)

	_, err = env.run(t, "policy", "init")
	assert.Error(t, err, "existing file is kept without --force")
	_, err = env.run(t, "policy", "init", "--force")
	assert.NoError(t, err)

	out, err = env.run(t, "policy", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "policy ok")
}

func TestShellLine(t *testing.T) {
	env := newTestEnv(t, testPolicy)
	session := []string{"--config", env.config, "--policy", env.policy}
	var out bytes.Buffer

	assert.True(t, runShellLine("db music -i 50", session, &out))
	assert.Contains(t, out.String(), "-20.00 dB")

	out.Reset()
	assert.True(t, runShellLine(`db "music`, session, &out))
	assert.Contains(t, out.String(), "Parse error")

	out.Reset()
	assert.True(t, runShellLine("db nothing -i 1", session, &out))
	assert.Contains(t, out.String(), "command error")

	out.Reset()
	assert.True(t, runShellLine("shell", session, &out))
	assert.Contains(t, out.String(), "Already in the shell")

	assert.False(t, runShellLine("exit", session, &out))
}

func TestShellLog(t *testing.T) {
	newTestEnv(t, testPolicy)
	var out bytes.Buffer

	require.NoError(t, handleShellLog([]string{"-vv"}, &out))
	assert.Equal(t, 2, shellVerbosity)
	assert.Equal(t, "debug", logging.LevelName())

	require.NoError(t, handleShellLog([]string{"--level", "trace"}, &out))
	assert.Equal(t, 4, shellVerbosity)

	out.Reset()
	require.NoError(t, handleShellLog([]string{"--show"}, &out))
	assert.Contains(t, out.String(), "log level: trace")

	assert.Error(t, handleShellLog([]string{"--level", "loud"}, &out))
	assert.Error(t, handleShellLog([]string{"--bogus"}, &out))
}
