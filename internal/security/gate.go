// Package security implements the privileged-escalation precondition gate
// that run_prompt and ask consult before contacting the app-server.
package security

// file: internal/security/gate.go

import (
	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/config"
)

// CheckPrivilegedEscalation fails with InvalidRequest unless every
// precondition holds for a privileged sandbox policy (workspaceWrite or
// dangerFullAccess): PrivilegedEscalationApproved is true, ApprovalPolicy is
// not never, and an explicit scope (Cwd or WritableRoots) is present.
// Read-only policies always pass.
func CheckPrivilegedEscalation(cfg config.SessionConfig) error {
	if !cfg.SandboxPolicy.Privileged() {
		return nil
	}

	var missing []string
	if !cfg.PrivilegedEscalationApproved {
		missing = append(missing, "privilegedEscalationApproved")
	}
	if cfg.ApprovalPolicy == config.ApprovalNever {
		missing = append(missing, "approvalPolicy")
	}
	if cfg.Cwd == "" && len(cfg.WritableRoots) == 0 {
		missing = append(missing, "explicitScope")
	}

	if len(missing) > 0 {
		return apperrors.NewInvalidRequest("privileged sandbox policy requires explicit escalation approval",
			map[string]interface{}{
				"sandboxVariant": string(cfg.SandboxPolicy.Variant),
				"missing":        missing,
			})
	}
	return nil
}
