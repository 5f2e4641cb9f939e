// Package layout derives an HTML template from a loaded document, either by
// placing every word where it was on the page or by asking a generator to
// reconstruct the design.
package layout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"resume-filler/internal/loader"
	"resume-filler/internal/model"
	"resume-filler/pkg/ai"
)

// Strategy selects how templates are built.
type Strategy string

const (
	StrategyGenerative Strategy = "generative"
	StrategyPositioned Strategy = "positioned"
)

// ParseStrategy accepts the configured strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyGenerative:
		return StrategyGenerative, nil
	case StrategyPositioned:
		return StrategyPositioned, nil
	default:
		return "", fmt.Errorf("unknown template strategy %q", s)
	}
}

// minGeneratedLength is the shortest generator output accepted as a
// template or as a refined template.
const minGeneratedLength = 50

// Template sources recorded on model.Template.
const (
	SourceGenerated     = "generated"
	SourcePositioned    = "positioned"
	SourceRefined       = "positioned+refined"
	SourceDeterministic = "deterministic"
)

type Options struct {
	Strategy Strategy
	// Refine passes positioned templates once through the generator.
	Refine  bool
	Timeout time.Duration
}

type Extractor struct {
	gen  ai.Generator
	opts Options
	log  *slog.Logger
}

// New returns a template extractor. gen may be nil, in which case the
// generative strategy always yields the deterministic template.
func New(gen ai.Generator, opts Options) *Extractor {
	if opts.Strategy == "" {
		opts.Strategy = StrategyGenerative
	}
	return &Extractor{gen: gen, opts: opts, log: slog.With("component", "layout", "strategy", string(opts.Strategy))}
}

// Extract builds the template of doc. Generator problems never fail the
// call; they are logged and replaced by a deterministic template.
func (e *Extractor) Extract(ctx context.Context, doc *loader.Document) (model.Template, error) {
	if doc == nil {
		return model.Template{}, errors.New("layout: nil document")
	}
	switch e.opts.Strategy {
	case StrategyPositioned:
		return e.positioned(ctx, doc), nil
	default:
		return e.generative(ctx, doc), nil
	}
}

func (e *Extractor) callGenerator(ctx context.Context, req ai.Request) (string, error) {
	if e.gen == nil {
		return "", errors.New("no generator configured")
	}
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := e.gen.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	e.log.Info("template response received", "bytes", len(out), "latency", time.Since(start))
	return ai.CleanHTML(out), nil
}
