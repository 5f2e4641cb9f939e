package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned by the loader for extensions it cannot read.
	ErrUnsupportedFormat = errors.New("unsupported file extension")
	// ErrNoRenderableContent means the record has no non-empty section left.
	ErrNoRenderableContent = errors.New("no renderable content")
	// ErrTemplateGenerationDegraded is logged when a generated template is
	// replaced by the deterministic one. It never reaches callers.
	ErrTemplateGenerationDegraded = errors.New("template generation degraded")
	// ErrFillDegraded is logged when the generative fill is replaced by the
	// fallback renderer. It never reaches callers.
	ErrFillDegraded = errors.New("fill degraded")
	// ErrNotFound is returned by storage when nothing is stored under a key.
	ErrNotFound = errors.New("not found")
)

// LoadError reports a document that exists but could not be decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ExtractionParseError reports generator output that is not valid JSON.
// Offset is the byte offset into the parsed payload and Context the text
// around it.
type ExtractionParseError struct {
	Offset  int64
	Context string
	Raw     string
	Err     error
}

func (e *ExtractionParseError) Error() string {
	return fmt.Sprintf("extraction output is not valid json at offset %d near %q: %v", e.Offset, e.Context, e.Err)
}

func (e *ExtractionParseError) Unwrap() error { return e.Err }

// SchemaValidationError reports JSON that parsed but does not have the
// record shape. Raw holds the rejected content unchanged.
type SchemaValidationError struct {
	Problems []string
	Raw      string
}

func (e *SchemaValidationError) Error() string {
	return "extraction output does not match record schema: " + strings.Join(e.Problems, "; ")
}
