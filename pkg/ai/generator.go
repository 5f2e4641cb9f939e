package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Request is a single generation call. Schema, when set, asks the backend
// to constrain its output to that JSON schema; backends without support
// fall back to embedding it in the prompt.
type Request struct {
	System string
	Prompt string
	Schema json.RawMessage
}

// Generator produces text for a prompt. Implementations never return an
// empty string together with a nil error.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

var (
	// ErrEmptyResponse is returned when a backend answered with no text.
	ErrEmptyResponse = errors.New("generator returned an empty response")
	// ErrTimeout is returned when the call deadline expired.
	ErrTimeout = errors.New("generator call timed out")
)

// GenerationError wraps a failed backend call.
type GenerationError struct {
	Backend string
	Status  int
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s generator: status %d: %v", e.Backend, e.Status, e.Err)
	}
	return fmt.Sprintf("%s generator: %v", e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func generationError(backend string, status int, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return &GenerationError{Backend: backend, Status: status, Err: err}
}

// Backend names accepted by New.
const (
	BackendService = "service"
	BackendGemini  = "gemini"
	BackendOpenAI  = "openai"
)

// Options selects and configures a backend.
type Options struct {
	Backend    string
	ServiceURL string
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
}

// New builds the generator named by opts.Backend.
func New(ctx context.Context, opts Options) (Generator, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendService:
		return NewClient(opts.ServiceURL, opts.Timeout), nil
	case BackendGemini:
		return NewGemini(ctx, opts.APIKey, opts.Model)
	case BackendOpenAI:
		return NewOpenAI(opts.BaseURL, opts.APIKey, opts.Model), nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", opts.Backend)
	}
}

// Close releases the resources held by gen when its backend keeps any,
// such as the Gemini client.
func Close(gen Generator) {
	if c, ok := gen.(interface{ Close() }); ok {
		c.Close()
	}
}

// schemaInstruction is appended to prompts for backends that cannot enforce
// a response schema natively.
func schemaInstruction(schema json.RawMessage) string {
	if len(schema) == 0 {
		return ""
	}
	return "\n\nThe response MUST be a single JSON object valid against this JSON-SCHEMA:\n" + string(schema)
}
