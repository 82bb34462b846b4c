package chat

import "errors"

var (
	// ErrEmptyMessage rejects blank input before the pipeline runs.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrProviderUnavailable marks a model or embedding provider failure
	// after retries. Non-fatal inside the pipeline; it triggers the next
	// fallback stage.
	ErrProviderUnavailable = errors.New("model provider unavailable")

	// ErrToolExecutionFailed marks a database-adapter tool call that
	// errored. Swallowed by the pipeline, which falls through to the
	// general model stage.
	ErrToolExecutionFailed = errors.New("tool execution failed")

	// ErrNotConfigured marks a collaborator that was never wired (no model
	// provider, no database adapter).
	ErrNotConfigured = errors.New("collaborator not configured")
)
