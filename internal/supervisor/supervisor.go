// Package supervisor owns spawn, handshake, and teardown ordering for the
// app-server child process (spec §4.7): it is the only component that
// starts an *exec.Cmd, and the only component that decides the runtime has
// reached Ready.
package supervisor

// file: internal/supervisor/supervisor.go

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/config"
	"github.com/dkoosis/appserversdk/internal/contract"
	"github.com/dkoosis/appserversdk/internal/jsonrpc"
	"github.com/dkoosis/appserversdk/internal/logging"
	"github.com/dkoosis/appserversdk/internal/rpc"
	"github.com/dkoosis/appserversdk/internal/transport"
)

// credentialEnvVar is the name under which a resolved CredentialRef secret
// is exported to the spawned app-server's environment.
const credentialEnvVar = "APP_SERVER_CREDENTIAL"

// keyringService is the OS credential-store service name under which
// CredentialRef accounts are looked up.
const keyringService = "appserversdk"

// resolveCredential looks up ref as an account name in the OS credential
// store. An empty ref is a no-op (no credential configured).
func resolveCredential(ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	service := keyringService
	account := ref
	if idx := strings.IndexByte(ref, '/'); idx >= 0 {
		service, account = ref[:idx], ref[idx+1:]
	}
	secret, err := keyring.Get(service, account)
	if err != nil {
		return "", apperrors.NewInvalidConfig("failed to resolve credentialRef from OS keyring",
			map[string]interface{}{"service": service, "account": account, "cause": err.Error()})
	}
	return secret, nil
}

// Runtime is everything produced by a successful Spawn: a live dispatcher
// bound to the spawned process, plus the pieces teardown needs to reverse
// the spawn order.
type Runtime struct {
	Dispatcher *rpc.Dispatcher
	Validator  *contract.Validator
	process    *transport.ProcessTransport
	logger     logging.Logger
}

// Options configures one Spawn call beyond what the RunProfile carries:
// the validation mode applied to the resulting dispatcher and an optional
// retained-state byte budget.
type Options struct {
	Mode             contract.ValidationMode
	StateBudgetBytes int
	Logger           logging.Logger
}

type initializeResult struct {
	Version string `json:"version"`
}

// Spawn executes the four-step sequence from spec §4.7 in order: verify
// the schema bundle, start the child process and transport, perform the
// version-gated handshake, then build the dispatcher and declare Ready. Any
// failure after the process has started tears down everything already
// created and composes the teardown error with the original failure rather
// than swallowing either.
func Spawn(ctx context.Context, profile config.RunProfile, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	logger = logger.WithField("component", "supervisor")

	validator := contract.NewValidator(contract.Config{SchemaDirOverride: profile.Client.SchemaDirOverride}, logger)
	if err := validator.Initialize(ctx, contract.Config{SchemaDirOverride: profile.Client.SchemaDirOverride}); err != nil {
		return nil, err
	}

	env := envSlice(profile.Client.Env)
	if secret, err := resolveCredential(profile.Client.CredentialRef); err != nil {
		validator.Shutdown()
		return nil, err
	} else if secret != "" {
		env = append(env, credentialEnvVar+"="+secret)
	}

	proc, err := transport.Spawn(ctx, transport.SpawnOptions{
		Command: profile.Client.Command,
		Args:    profile.Client.Args,
		Dir:     profile.Client.Dir,
		Env:     env,
	}, logger)
	if err != nil {
		validator.Shutdown()
		return nil, err
	}

	if err := handshake(ctx, proc, profile.Client); err != nil {
		teardownErr := teardownPartial(proc, validator)
		return nil, apperrors.Combine(err, teardownErr)
	}

	dispatcher := rpc.New(rpc.Config{
		Transport:        proc,
		Validator:        validator,
		Mode:             opts.Mode,
		Logger:           logger,
		StateBudgetBytes: opts.StateBudgetBytes,
	})

	logger.Info("app-server runtime ready", "command", profile.Client.Command)
	return &Runtime{Dispatcher: dispatcher, Validator: validator, process: proc, logger: logger}, nil
}

// handshake sends the initialize request and enforces the userAgent and
// version-gate preconditions. It talks to the transport directly — the
// dispatcher does not exist yet at this point in the spawn sequence.
func handshake(ctx context.Context, proc transport.Transport, client config.ClientConfig) error {
	if client.UserAgent == "" {
		return apperrors.NewMissingInitializeUserAgent()
	}

	req, err := jsonrpc.NewRequest(0, "initialize", map[string]interface{}{
		"userAgent": client.UserAgent,
	})
	if err != nil {
		return err
	}
	frame, err := json.Marshal(req)
	if err != nil {
		return apperrors.NewInternal("failed to marshal initialize request", err, nil)
	}
	if err := proc.WriteMessage(ctx, frame); err != nil {
		return apperrors.NewTransportBroken(err)
	}

	reply, err := proc.ReadMessage(ctx)
	if err != nil {
		return apperrors.NewTransportBroken(err)
	}
	var msg jsonrpc.Message
	if jsonErr := json.Unmarshal(reply, &msg); jsonErr != nil {
		return apperrors.NewTransportFrameInvalid("initialize reply is not valid JSON", string(reply))
	}
	if msg.Error != nil {
		return apperrors.NewInvalidResponse("initialize request was rejected", map[string]interface{}{
			"code": msg.Error.Code, "message": msg.Error.Message,
		})
	}

	var result initializeResult
	if jsonErr := json.Unmarshal(msg.Result, &result); jsonErr != nil {
		return apperrors.NewInvalidResponse("initialize result did not match expected shape", nil)
	}

	if client.DisableVersionGate {
		return nil
	}
	minimum := client.MinimumVersion
	if minimum == "" {
		minimum = DefaultMinimumVersion
	}
	if compareVersions(result.Version, minimum) < 0 {
		return apperrors.NewIncompatibleVersion(result.Version, minimum)
	}
	return nil
}

// teardownPartial reverses whatever Spawn had already created when the
// handshake fails, per spec §7's "shutdown errors are NOT swallowed" policy.
func teardownPartial(proc *transport.ProcessTransport, validator *contract.Validator) error {
	var shutdownErr error
	if err := proc.Signal(); err != nil {
		shutdownErr = apperrors.Combine(shutdownErr, err)
	}
	if err := proc.Close(); err != nil {
		shutdownErr = apperrors.Combine(shutdownErr, err)
	}
	if err := proc.Wait(); err != nil {
		shutdownErr = apperrors.Combine(shutdownErr, err)
	}
	validator.Shutdown()
	return shutdownErr
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

// Shutdown reverses the spawn order: stop accepting new requests and drain
// in-flight work via the dispatcher, signal the child to exit, join it, then
// release the validator. Any join error becomes RuntimeError::Internal; it
// is never silently dropped.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var result error

	if err := r.Dispatcher.Shutdown(); err != nil {
		result = apperrors.Combine(result, err)
	}

	if err := r.process.Signal(); err != nil {
		r.logger.Warn("failed to signal child process to exit", "error", err)
	}
	if err := r.process.Wait(); err != nil {
		result = apperrors.Combine(result, err)
	}

	r.Validator.Shutdown()
	return result
}
