package llm

import (
	"errors"
	"fmt"
)

// ErrProviderUnavailable reports that the local inference server could not
// be reached. Callers surface it verbatim so the operator knows to start
// the server; it is never retried automatically.
var ErrProviderUnavailable = errors.New("ollama server not running; start it with 'ollama serve' or open the Ollama app")

// SchemaValidationError reports a model response that parsed or validated
// incorrectly against the requested schema. The response never reached the
// caller and was never persisted.
type SchemaValidationError struct {
	Schema string
	Err    error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s response failed schema validation: %v", e.Schema, e.Err)
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

// UpstreamError carries a non-2xx status from a hosted backend, with enough
// body context to diagnose the failure.
type UpstreamError struct {
	Backend Backend
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream failure: status %d: %s", e.Backend, e.Status, e.Body)
}
