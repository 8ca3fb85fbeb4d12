package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topos.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
bpm: 140
time_signature:
  beats: 3
  unit: 4
output:
  port: "IAC Driver"
  volume: 0.5
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 140.0, cfg.BPM)
	assert.Equal(t, 48, cfg.PPQN, "unset fields keep their defaults")
	assert.Equal(t, Signature{Beats: 3, Unit: 4}, cfg.TimeSignature)
	assert.Equal(t, "IAC Driver", cfg.Output.Port)
	assert.Equal(t, 0.5, cfg.Output.Volume)
	assert.Equal(t, "sine", cfg.Output.Wave)
}

func TestLoadDurations(t *testing.T) {
	path := writeConfig(t, `
poll_interval: 10ms
lookahead: 200ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, cfg.PollInterval.Std())
	assert.Equal(t, 200*time.Millisecond, cfg.Lookahead.Std())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "bpm: [not a number\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadSanitizesNonsenseValues(t *testing.T) {
	path := writeConfig(t, `
bpm: -10
ppqn: 0
time_signature:
  beats: 0
  unit: 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().BPM, cfg.BPM)
	assert.Equal(t, Default().PPQN, cfg.PPQN)
	assert.Equal(t, Default().TimeSignature, cfg.TimeSignature)
}
