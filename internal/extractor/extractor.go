// Package extractor turns normalized résumé text into a validated
// ResumeRecord using a generator.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"resume-filler/internal/domain"
	"resume-filler/internal/model"
	"resume-filler/pkg/ai"
	"resume-filler/pkg/ai/prompts"
)

// contextRadius is the number of bytes shown on each side of a parse error.
const contextRadius = 40

type Extractor struct {
	gen     ai.Generator
	timeout time.Duration
	log     *slog.Logger
}

// New returns an extractor. A non-positive timeout means the caller's
// context alone bounds the generator call.
func New(gen ai.Generator, timeout time.Duration) *Extractor {
	return &Extractor{gen: gen, timeout: timeout, log: slog.With("component", "extractor")}
}

// Extract asks the generator for the record of text, validates it against
// the record schema and filters empty content. Output that is not JSON
// fails with *domain.ExtractionParseError; JSON of the wrong shape fails
// with *domain.SchemaValidationError. Neither is repaired or retried.
func (e *Extractor) Extract(ctx context.Context, text string) (model.ResumeRecord, error) {
	if strings.TrimSpace(text) == "" {
		e.log.Warn("empty document text, nothing to extract")
		return model.ResumeRecord{Sections: []model.Section{}}, nil
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := e.gen.Generate(ctx, ai.Request{
		System: prompts.ExtractionSystem,
		Prompt: prompts.Extraction(text),
		Schema: model.RecordSchema(),
	})
	if err != nil {
		return model.ResumeRecord{}, fmt.Errorf("extract record: %w", err)
	}
	e.log.Info("extraction response received", "bytes", len(raw), "latency", time.Since(start))

	rec, err := Parse(raw)
	if err != nil {
		e.log.Warn("extraction output rejected", "error", err)
		return model.ResumeRecord{}, err
	}
	e.log.Info("record extracted", "sections", len(rec.Sections))
	return rec, nil
}

// Parse decodes a raw generator response into a filtered record. The
// payload is the first fenced code block when one exists, otherwise the
// whole response.
func Parse(raw string) (model.ResumeRecord, error) {
	payload := ai.FencedPayload(raw)

	var doc interface{}
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		offset := errorOffset(err, payload)
		return model.ResumeRecord{}, &domain.ExtractionParseError{
			Offset:  offset,
			Context: around(payload, offset),
			Raw:     raw,
			Err:     err,
		}
	}

	problems, err := model.ValidateRecord(doc)
	if err != nil {
		return model.ResumeRecord{}, fmt.Errorf("validate record: %w", err)
	}
	if len(problems) > 0 {
		return model.ResumeRecord{}, &domain.SchemaValidationError{Problems: problems, Raw: raw}
	}

	var rec model.ResumeRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return model.ResumeRecord{}, &domain.SchemaValidationError{Problems: []string{err.Error()}, Raw: raw}
	}
	return rec.Filter(), nil
}

func errorOffset(err error, payload string) int64 {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Offset
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Offset
	}
	return int64(len(payload))
}

func around(s string, offset int64) string {
	lo := int(offset) - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := int(offset) + contextRadius
	if hi > len(s) {
		hi = len(s)
	}
	if lo > hi {
		lo = hi
	}
	return s[lo:hi]
}
