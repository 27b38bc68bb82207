// Package session implements the Client lifecycle FSM, per-session state,
// and the fail-open hook pipeline that wraps a turn.
package session

// file: internal/session/hooks.go

import (
	"context"
	"fmt"
	"reflect"
)

// HookPatch is a hook's proposed field-by-field mutation, keyed by
// TurnInput's Go field name. Only fields tagged `hook:"mutable"` on
// TurnInput may actually be applied; anything else is recorded as a
// mutation issue and ignored, so adding a new hookable field is a one-line
// struct-tag change rather than a hand-rolled switch.
type HookPatch map[string]interface{}

// Hook runs before (pre) or after (post) the core turn call. Pre-hooks may
// return a HookPatch; post-hooks see the final PromptRunResult but cannot
// alter it.
type Hook interface {
	Name() string
	RunPre(ctx context.Context, in *TurnInput) (HookPatch, error)
	RunPost(ctx context.Context, result *PromptRunResult) error
}

// IssueClass discriminates why a HookIssue was recorded.
type IssueClass string

const (
	// IssueMutation records an attempted write to a field outside the
	// hook:"mutable" whitelist.
	IssueMutation IssueClass = "mutation"
	// IssueExecution records a hook that returned an error.
	IssueExecution IssueClass = "execution"
)

// HookIssue is one fail-open record from the hook pipeline; it never
// changes the turn outcome.
type HookIssue struct {
	Phase    string // "pre" or "post"
	Class    IssueClass
	Message  string
	CauseRef string // the hook's Name()
}

// HookReport accumulates every issue raised across both chains. A nil or
// empty Issues slice means the hook-free path behaved byte-identically, as
// required when zero hooks are registered.
type HookReport struct {
	Issues []HookIssue
}

func (r *HookReport) record(phase string, class IssueClass, message, causeRef string) {
	r.Issues = append(r.Issues, HookIssue{Phase: phase, Class: class, Message: message, CauseRef: causeRef})
}

const mutableTag = "hook"
const mutableTagValue = "mutable"

// runPreHooks executes hooks in registered order, applying whitelisted
// patch fields and recording every issue. A hook error never stops the
// chain (fail-open).
func runPreHooks(ctx context.Context, hooks []Hook, in *TurnInput, report *HookReport) {
	for _, h := range hooks {
		patch, err := h.RunPre(ctx, in)
		if err != nil {
			report.record("pre", IssueExecution, err.Error(), h.Name())
			continue
		}
		applyPatch(in, patch, h.Name(), report)
	}
}

// applyPatch sets only fields tagged hook:"mutable" on TurnInput, matched
// by Go field name against the patch's keys. Any key naming a field that
// does not carry the tag (or names no field at all) is recorded as a
// mutation issue rather than applied.
func applyPatch(in *TurnInput, patch HookPatch, hookName string, report *HookReport) {
	if len(patch) == 0 {
		return
	}
	v := reflect.ValueOf(in).Elem()
	t := v.Type()

	for fieldName, newValue := range patch {
		field, ok := t.FieldByName(fieldName)
		if !ok || field.Tag.Get(mutableTag) != mutableTagValue {
			report.record("pre", IssueMutation,
				fmt.Sprintf("field %q is not in the hook-mutable whitelist", fieldName), hookName)
			continue
		}

		fv := v.FieldByIndex(field.Index)
		newRV := reflect.ValueOf(newValue)
		if !newRV.IsValid() || !newRV.Type().AssignableTo(fv.Type()) {
			report.record("pre", IssueMutation,
				fmt.Sprintf("field %q rejected: incompatible type %T", fieldName, newValue), hookName)
			continue
		}
		fv.Set(newRV)
	}
}

func runPostHooks(ctx context.Context, hooks []Hook, result *PromptRunResult, report *HookReport) {
	for _, h := range hooks {
		if err := h.RunPost(ctx, result); err != nil {
			report.record("post", IssueExecution, err.Error(), h.Name())
		}
	}
}
