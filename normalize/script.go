package normalize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ScriptStatus classifies the outcome of a script field invocation.
type ScriptStatus int

const (
	// ScriptOK means the script exited 0 and its stdout parsed as the
	// field's value.
	ScriptOK ScriptStatus = iota
	// ScriptAbsent means the script exited 1: the data legitimately does
	// not exist on this host. The caller uses the fallback, no warning.
	ScriptAbsent
	// ScriptBroken means the script exited >= 2, timed out, or failed to
	// execute. The caller uses the sentinel and a warning is logged.
	ScriptBroken
)

// String returns the status label used in logs and metrics.
func (s ScriptStatus) String() string {
	switch s {
	case ScriptOK:
		return "ok"
	case ScriptAbsent:
		return "absent"
	default:
		return "broken"
	}
}

// scriptWaitGrace bounds how long Run waits for the helper's stdio pipes
// to close after the deadline kill. Killing the helper does not reach
// grandchildren it spawned; without this grace cutoff a background child
// holding the inherited stdout pipe would stall the extraction pass for
// its full lifetime.
const scriptWaitGrace = time.Second

// scriptRequest is the single JSON object written to the helper's stdin.
type scriptRequest struct {
	Fields map[string]interface{} `json:"fields"`
	Args   map[string]interface{} `json:"args"`
}

// Executor runs schema-declared helper scripts. It is an explicit
// capability so tests can swap the subprocess implementation for an
// in-process one without touching the extraction pipeline.
type Executor interface {
	// Run invokes the helper at path with the JSON request protocol and
	// classifies the result per the exit-code contract. The timeout bounds
	// the whole invocation; an expired timeout is ScriptBroken.
	Run(ctx context.Context, path string, fields, args map[string]interface{}, timeout time.Duration) (interface{}, ScriptStatus)
}

// ProcessExecutor is the production Executor: it spawns the helper as a
// subprocess, writes one JSON object to its stdin and reads one JSON value
// from its stdout. The subprocess is opaque, trusted and timeout-bounded;
// the core performs no other I/O on its behalf.
type ProcessExecutor struct {
	logger *zap.SugaredLogger
}

// NewProcessExecutor creates a subprocess-backed executor.
func NewProcessExecutor(logger *zap.SugaredLogger) *ProcessExecutor {
	return &ProcessExecutor{logger: logger}
}

// Run implements Executor.
func (e *ProcessExecutor) Run(ctx context.Context, path string, fields, args map[string]interface{}, timeout time.Duration) (interface{}, ScriptStatus) {
	payload, err := json.Marshal(scriptRequest{Fields: fields, Args: args})
	if err != nil {
		e.logger.Warnw("script request marshal failed", "script", path, "error", err)
		return nil, ScriptBroken
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path)
	cmd.WaitDelay = scriptWaitGrace
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		e.logger.Warnw("script timed out", "script", path, "timeout", timeout)
		return nil, ScriptBroken
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.ExitCode() == 1 {
				// Data absent on this host; caller falls back quietly.
				return nil, ScriptAbsent
			}
			e.logger.Warnw("script exited broken",
				"script", path,
				"exit_code", exitErr.ExitCode(),
				"stderr", truncate(stderr.String(), 200))
			return nil, ScriptBroken
		}
		e.logger.Warnw("script failed to run", "script", path, "error", err)
		return nil, ScriptBroken
	}

	var value interface{}
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &value); err != nil {
		e.logger.Warnw("script produced invalid JSON",
			"script", path,
			"error", err,
			"stdout", truncate(stdout.String(), 200))
		return nil, ScriptBroken
	}
	return value, ScriptOK
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ResolveScript locates a schema-declared script name. Search order:
//  1. Absolute path, used as-is if it exists
//  2. Relative to the schema file's own directory
//  3. Relative to the current working directory
//  4. The configured built-in scripts directory
//
// Returns the resolved path and whether a candidate was found.
func ResolveScript(script, schemaSourcePath, builtinDir string) (string, bool) {
	if filepath.IsAbs(script) {
		if fileExists(script) {
			return script, true
		}
		return "", false
	}

	if schemaSourcePath != "" {
		candidate := filepath.Join(filepath.Dir(schemaSourcePath), script)
		if fileExists(candidate) {
			return candidate, true
		}
	}

	if fileExists(script) {
		return script, true
	}

	if builtinDir != "" {
		candidate := filepath.Join(builtinDir, script)
		if fileExists(candidate) {
			return candidate, true
		}
	}

	return "", false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
