package llm

import "fmt"

// SchemaError means a collaborator answered, but its structured output was
// malformed, incomplete or of the wrong shape. It is fatal for a ranking run
// and is never retried at this layer.
type SchemaError struct {
	// Collaborator names the service that produced the bad payload,
	// e.g. "paraphrase" or "embedding".
	Collaborator string
	Message      string
	Cause        error
}

func (e *SchemaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s schema error: %s: %v", e.Collaborator, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s schema error: %s", e.Collaborator, e.Message)
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// APICallError represents a transport failure talking to a provider
type APICallError struct {
	Provider Provider
	Message  string
	Cause    error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s API call failed: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s API call failed: %s", e.Provider, e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}
