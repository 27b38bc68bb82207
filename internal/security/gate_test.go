package security

// file: internal/security/gate_test.go

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/config"
)

func TestCheckPrivilegedEscalation_ReadOnlyAlwaysPasses(t *testing.T) {
	cfg := config.SessionConfig{SandboxPolicy: config.SandboxPolicy{Variant: config.SandboxReadOnly}}
	assert.NoError(t, CheckPrivilegedEscalation(cfg))
}

func TestCheckPrivilegedEscalation_RejectsWithoutApprovalFlag(t *testing.T) {
	cfg := config.SessionConfig{
		SandboxPolicy:  config.SandboxPolicy{Variant: config.SandboxWorkspaceWrite, Roots: []string{"/tmp/ws"}},
		ApprovalPolicy: config.ApprovalOnRequest,
		Cwd:            "/tmp/ws",
	}
	err := CheckPrivilegedEscalation(cfg)
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryProtocol, apperrors.Category(err))
}

func TestCheckPrivilegedEscalation_RejectsWhenApprovalPolicyIsNever(t *testing.T) {
	cfg := config.SessionConfig{
		SandboxPolicy:                config.SandboxPolicy{Variant: config.SandboxWorkspaceWrite, Roots: []string{"/tmp/ws"}},
		ApprovalPolicy:               config.ApprovalNever,
		PrivilegedEscalationApproved: true,
		Cwd:                          "/tmp/ws",
	}
	require.Error(t, CheckPrivilegedEscalation(cfg))
}

func TestCheckPrivilegedEscalation_RejectsWithoutExplicitScope(t *testing.T) {
	cfg := config.SessionConfig{
		SandboxPolicy:                config.SandboxPolicy{Variant: config.SandboxDangerFullAccess},
		ApprovalPolicy:               config.ApprovalOnRequest,
		PrivilegedEscalationApproved: true,
	}
	require.Error(t, CheckPrivilegedEscalation(cfg))
}

func TestCheckPrivilegedEscalation_PassesWhenAllPreconditionsHold(t *testing.T) {
	cfg := config.SessionConfig{
		SandboxPolicy:                config.SandboxPolicy{Variant: config.SandboxWorkspaceWrite, Roots: []string{"/tmp/ws"}},
		ApprovalPolicy:               config.ApprovalOnRequest,
		PrivilegedEscalationApproved: true,
		Cwd:                          "/tmp/ws",
	}
	assert.NoError(t, CheckPrivilegedEscalation(cfg))
}
