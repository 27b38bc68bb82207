package session

// file: internal/session/turn.go

import "github.com/dkoosis/appserversdk/internal/config"

// TurnInput is the mutable working copy of one ask/ask_with call as it
// passes through the hook pipeline. Only fields tagged hook:"mutable" may
// be rewritten by a pre-hook's HookPatch; Cwd, ThreadID, and Config are
// fixed for the lifetime of the call.
type TurnInput struct {
	ThreadID      string
	Cwd           string
	Config        config.SessionConfig
	Prompt        string            `hook:"mutable"`
	Model         string            `hook:"mutable"`
	Attachments   []string          `hook:"mutable"`
	MetadataDelta map[string]string `hook:"mutable"`
}

// Item is one rendered entry of a completed turn's item sequence, carried
// through from the live state projection rather than re-fetched.
type Item struct {
	ItemID  string
	Payload []byte
}

// PromptRunResult is the terminal outcome of run_prompt/ask/ask_with, per
// §4.5 step 6. Hook issues are informational only — they never change
// AssistantText, Items, or whether the call is reported as successful.
type PromptRunResult struct {
	ThreadID      string
	TurnID        string
	AssistantText string
	Items         []Item
	HookReport    HookReport
}
