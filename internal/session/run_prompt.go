package session

// file: internal/session/run_prompt.go

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/contract"
	"github.com/dkoosis/appserversdk/internal/rpc"
	"github.com/dkoosis/appserversdk/internal/security"
)

// runPrompt drives the full per-turn sequence: attachment pre-check,
// security gate, pre-hooks, the core turn/start call, post-hooks, and the
// final result. If hooks is empty, steps 3 and 5 are no-ops and the
// sequence is byte-identical to the hook-free path.
func runPrompt(ctx context.Context, d *rpc.Dispatcher, hooks []Hook, in TurnInput) (*PromptRunResult, error) {
	if err := canonicalizeAttachments(&in); err != nil {
		return nil, err
	}

	if err := security.CheckPrivilegedEscalation(in.Config); err != nil {
		return nil, err
	}

	report := HookReport{}
	runPreHooks(ctx, hooks, &in, &report)

	result, err := driveTurn(ctx, d, in)
	if err != nil {
		return nil, err
	}
	result.HookReport = report

	runPostHooks(ctx, hooks, result, &report)
	result.HookReport = report

	return result, nil
}

// canonicalizeAttachments rejects empty or NUL-containing attachment paths
// and resolves every relative path against the process working directory.
// Existence is never checked here — purely lexical validation per step 1.
func canonicalizeAttachments(in *TurnInput) error {
	for i, a := range in.Attachments {
		if a == "" || strings.ContainsRune(a, 0) {
			return apperrors.NewInvalidRequest("invalid attachment path", map[string]interface{}{
				"index": i,
			})
		}
		abs, err := filepath.Abs(a)
		if err != nil {
			return apperrors.NewInvalidRequest("attachment path could not be canonicalized", map[string]interface{}{
				"index": i, "path": a,
			})
		}
		in.Attachments[i] = abs
	}
	return nil
}

type turnStartResult struct {
	ThreadID string `json:"threadId"`
	TurnID   string `json:"turnId"`
}

// driveTurn issues turn/start and follows the live broadcast, filtered to
// this thread/turn, until a terminal notification arrives or ctx is
// cancelled by the caller (an in-flight interrupt_turn call races this
// exact cancellation path).
func driveTurn(ctx context.Context, d *rpc.Dispatcher, in TurnInput) (*PromptRunResult, error) {
	sub := d.Subscribe(64)

	raw, err := d.Request(ctx, contract.MethodTurnStart, map[string]interface{}{
		"threadId":      in.ThreadID,
		"cwd":           in.Cwd,
		"prompt":        in.Prompt,
		"model":         in.Model,
		"attachments":   in.Attachments,
		"metadataDelta": in.MetadataDelta,
	})
	if err != nil {
		return nil, err
	}

	var started turnStartResult
	if jsonErr := json.Unmarshal(raw, &started); jsonErr != nil {
		return nil, apperrors.NewInvalidResponse("turn/start result did not match expected shape", map[string]interface{}{
			"cause": jsonErr.Error(),
		})
	}
	if started.ThreadID == "" {
		started.ThreadID = in.ThreadID
	}

	result := &PromptRunResult{ThreadID: started.ThreadID, TurnID: started.TurnID}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case env, ok := <-sub:
			if !ok {
				return result, nil
			}
			if env.IDs.ThreadID != started.ThreadID || env.IDs.TurnID != started.TurnID {
				continue
			}
			switch env.Method {
			case "turn/itemAdded":
				item := Item{ItemID: env.IDs.ItemID, Payload: env.Payload}
				result.Items = append(result.Items, item)
				if text, ok := extractText(env.Payload); ok {
					result.AssistantText += text
				}
			case "turn/completed", "turn/failed", "turn/interrupted":
				return result, nil
			}
		}
	}
}

func extractText(payload []byte) (string, bool) {
	var v struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(payload, &v); err != nil || v.Text == "" {
		return "", false
	}
	return v.Text, true
}
