package config

// file: internal/config/config_test.go

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRunProfile_ValidFileAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	content := `
client:
  command: app-server
  userAgent: test-client/1.0
defaultSession:
  sandboxPolicy:
    variant: workspaceWrite
    roots: ["/tmp/ws"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	profile, err := LoadRunProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "app-server", profile.Client.Command)
	assert.Equal(t, EffortMedium, profile.DefaultSession.Effort, "unset effort falls back to default")
	assert.Equal(t, ApprovalNever, profile.DefaultSession.ApprovalPolicy)
	assert.True(t, profile.DefaultSession.SandboxPolicy.Privileged())
}

func TestLoadRunProfile_MissingCommandFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client:\n  userAgent: x\n"), 0o644))

	_, err := LoadRunProfile(path)
	require.Error(t, err)
}

func TestLoadRunProfile_NonexistentFileFails(t *testing.T) {
	_, err := LoadRunProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestExpandPath_ExpandsHomeDirectory(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandPath("~/foo/bar")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "foo/bar"), expanded)
}

func TestExpandPath_LeavesAbsolutePathUntouched(t *testing.T) {
	expanded, err := ExpandPath("/tmp/foo")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/foo", expanded)
}

func TestSandboxPolicy_PrivilegedOnlyForWorkspaceWriteAndDangerFullAccess(t *testing.T) {
	assert.False(t, SandboxPolicy{Variant: SandboxReadOnly}.Privileged())
	assert.True(t, SandboxPolicy{Variant: SandboxWorkspaceWrite}.Privileged())
	assert.True(t, SandboxPolicy{Variant: SandboxDangerFullAccess}.Privileged())
}
