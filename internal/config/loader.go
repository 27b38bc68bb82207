package config

// file: internal/config/loader.go

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dkoosis/appserversdk/internal/apperrors"
)

// LoadRunProfile reads and parses a RunProfile from a YAML file, applying
// DefaultSessionConfig to any fields the file leaves zero-valued.
func LoadRunProfile(path string) (*RunProfile, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, apperrors.NewInvalidConfig("failed to read run profile",
			map[string]interface{}{"path": expanded, "cause": err.Error()})
	}

	profile := RunProfile{DefaultSession: DefaultSessionConfig()}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, apperrors.NewInvalidConfig("failed to parse run profile YAML",
			map[string]interface{}{"path": expanded, "cause": err.Error()})
	}

	if profile.DefaultSession.Effort == "" {
		profile.DefaultSession.Effort = EffortMedium
	}
	if profile.DefaultSession.ApprovalPolicy == "" {
		profile.DefaultSession.ApprovalPolicy = ApprovalNever
	}
	if profile.DefaultSession.SandboxPolicy.Variant == "" {
		profile.DefaultSession.SandboxPolicy.Variant = SandboxReadOnly
	}
	if profile.Client.Command == "" {
		return nil, apperrors.NewInvalidConfig("run profile missing client.command",
			map[string]interface{}{"path": expanded})
	}

	return &profile, nil
}
