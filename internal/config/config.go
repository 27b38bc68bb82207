// Package config defines the configuration records passed to the
// supervisor when spawning and driving the app-server child, and the
// ~-expansion helper used to resolve paths loaded from YAML.
package config

// file: internal/config/config.go

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/logging"
)

var logger = logging.GetLogger("config")

// Effort is the reasoning-effort level requested of a turn.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// ApprovalPolicy governs when the app-server must ask the host before acting.
type ApprovalPolicy string

const (
	ApprovalNever         ApprovalPolicy = "never"
	ApprovalOnRequest     ApprovalPolicy = "onRequest"
	ApprovalOnFailure     ApprovalPolicy = "onFailure"
	ApprovalUnlessTrusted ApprovalPolicy = "unlessTrusted"
)

// SandboxVariant discriminates SandboxPolicy.
type SandboxVariant string

const (
	SandboxReadOnly         SandboxVariant = "readOnly"
	SandboxWorkspaceWrite   SandboxVariant = "workspaceWrite"
	SandboxDangerFullAccess SandboxVariant = "dangerFullAccess"
)

// SandboxPolicy is the effective sandbox for a turn. Roots/Network only
// apply when Variant == SandboxWorkspaceWrite.
type SandboxPolicy struct {
	Variant SandboxVariant `yaml:"variant"`
	Roots   []string       `yaml:"roots,omitempty"`
	Network bool           `yaml:"network,omitempty"`
}

// Privileged reports whether the policy requires the security gate.
func (p SandboxPolicy) Privileged() bool {
	return p.Variant == SandboxWorkspaceWrite || p.Variant == SandboxDangerFullAccess
}

// HookSet is the ordered pre/post hook names attached to a session.
type HookSet struct {
	Pre  []string `yaml:"pre,omitempty"`
	Post []string `yaml:"post,omitempty"`
}

// SessionConfig is the full set of parameters for one thread/turn session.
type SessionConfig struct {
	Model                        string            `yaml:"model,omitempty"`
	Effort                       Effort            `yaml:"effort"`
	ApprovalPolicy               ApprovalPolicy    `yaml:"approvalPolicy"`
	SandboxPolicy                SandboxPolicy     `yaml:"sandboxPolicy"`
	Cwd                          string            `yaml:"cwd,omitempty"`
	WritableRoots                []string          `yaml:"writableRoots,omitempty"`
	Attachments                  []string          `yaml:"attachments,omitempty"`
	MetadataDelta                map[string]string `yaml:"metadataDelta,omitempty"`
	PrivilegedEscalationApproved bool              `yaml:"privilegedEscalationApproved"`
	SchemaDirOverride            string            `yaml:"schemaDirOverride,omitempty"`
	Hooks                        HookSet           `yaml:"hooks,omitempty"`
}

// DefaultSessionConfig returns the documented defaults: medium effort, no
// approval required, read-only sandbox.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Effort:         EffortMedium,
		ApprovalPolicy: ApprovalNever,
		SandboxPolicy:  SandboxPolicy{Variant: SandboxReadOnly},
	}
}

// ClientConfig parameterizes the spawned app-server process and the
// handshake performed against it.
type ClientConfig struct {
	Command            string            `yaml:"command"`
	Args               []string          `yaml:"args,omitempty"`
	Dir                string            `yaml:"dir,omitempty"`
	Env                map[string]string `yaml:"env,omitempty"`
	UserAgent          string            `yaml:"userAgent"`
	MinimumVersion     string            `yaml:"minimumVersion,omitempty"`
	DisableVersionGate bool              `yaml:"disableVersionGate,omitempty"`
	CredentialRef      string            `yaml:"credentialRef,omitempty"`
	SchemaDirOverride  string            `yaml:"schemaDirOverride,omitempty"`
}

// RunProfile bundles a ClientConfig with the default SessionConfig applied
// to every session started under it.
type RunProfile struct {
	Client         ClientConfig  `yaml:"client"`
	DefaultSession SessionConfig `yaml:"defaultSession"`
}

// ExpandPath expands a leading ~ to the user's home directory, leaving
// every other path untouched.
func ExpandPath(path string) (string, error) {
	logger.Debug("expanding path", "input", path)
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		wrapped := apperrors.NewInternal("failed to resolve user home directory", err,
			map[string]interface{}{"inputPath": path})
		logger.Error("path expansion failed", "error", wrapped)
		return "", wrapped
	}

	return filepath.Join(home, path[1:]), nil
}
