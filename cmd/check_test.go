package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "check.lua")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestCheckAcceptsValidScript(t *testing.T) {
	path := writeScript(t, `
if mod(1) then
  note(pattern("bass", {36, 39, 43}, 0.25) or 36)
end
`)
	assert.NoError(t, runCheck(checkCmd, []string{path}))
}

func TestCheckRejectsBrokenScript(t *testing.T) {
	path := writeScript(t, "if mod(1 then end")
	assert.Error(t, runCheck(checkCmd, []string{path}))
}

func TestCheckRejectsRuntimeFault(t *testing.T) {
	path := writeScript(t, "note(nil)")
	assert.Error(t, runCheck(checkCmd, []string{path}))
}

func TestCheckMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghost.lua")
	assert.Error(t, runCheck(checkCmd, []string{path}))
}
