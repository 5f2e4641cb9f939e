// Package filler merges a résumé record into a layout template. The
// generator is asked to reconcile the two first; whenever that fails, times
// out or produces an implausible document, a deterministic renderer that
// ignores the template takes over.
package filler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"resume-filler/internal/contact"
	"resume-filler/internal/domain"
	"resume-filler/internal/model"
	"resume-filler/pkg/ai"
	"resume-filler/pkg/ai/prompts"
)

type Filler struct {
	gen     ai.Generator
	timeout time.Duration
	log     *slog.Logger
}

// New returns a filler. gen may be nil, in which case every fill uses the
// deterministic renderer.
func New(gen ai.Generator, timeout time.Duration) *Filler {
	return &Filler{gen: gen, timeout: timeout, log: slog.With("component", "filler")}
}

// Result is a filled document together with the metadata derived for it.
type Result struct {
	HTML     string
	Metadata model.ContactInfo
	// Degraded is set when the deterministic renderer produced HTML.
	Degraded bool
}

// Fill renders rec into tpl. The only error it returns is
// domain.ErrNoRenderableContent, for a record with nothing left after
// filtering; every generator problem is absorbed by the fallback.
func (f *Filler) Fill(ctx context.Context, tpl model.Template, rec model.ResumeRecord) (Result, error) {
	rec = rec.Filter()
	if len(rec.Sections) == 0 {
		return Result{}, domain.ErrNoRenderableContent
	}
	info := contact.DeriveMetadata(rec)
	log := f.log.With("operation", "fill", "sections", len(rec.Sections), "variant", string(tpl.Variant))

	filled, err := f.generate(ctx, tpl, rec)
	if err != nil {
		log.Warn("using fallback renderer", "error", fmt.Errorf("%w: %w", domain.ErrFillDegraded, err))
		return Result{HTML: renderFallback(rec, info), Metadata: info, Degraded: true}, nil
	}
	log.Info("template filled", "bytes", len(filled))
	return Result{HTML: ReplacePlaceholders(filled, info), Metadata: info}, nil
}

func (f *Filler) generate(ctx context.Context, tpl model.Template, rec model.ResumeRecord) (string, error) {
	if tpl.Empty() {
		return "", errors.New("empty template")
	}
	if f.gen == nil {
		return "", errors.New("no generator configured")
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	source := tpl.Document()
	start := time.Now()
	out, err := f.gen.Generate(ctx, ai.Request{
		System: prompts.FillSystem,
		Prompt: prompts.Fill(source, ProfileText(rec)),
	})
	if err != nil {
		return "", err
	}
	f.log.Debug("fill response received", "bytes", len(out), "latency", time.Since(start))
	filled := ai.CleanHTML(out)
	if err := validateFilled(source, filled); err != nil {
		return "", err
	}
	return filled, nil
}
