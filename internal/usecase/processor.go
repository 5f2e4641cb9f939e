package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resume-filler/internal/domain"
	"resume-filler/internal/extractor"
	"resume-filler/internal/filler"
	"resume-filler/internal/layout"
	"resume-filler/internal/loader"
	"resume-filler/internal/model"

	"github.com/google/uuid"
)

type Renderer interface {
	RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error)
}

// Storage is the keyed get/put collaborator. Every owner has at most one
// template, one record and one rendered résumé; a put replaces the previous
// value wholesale. Getters return domain.ErrNotFound when nothing is stored.
type Storage interface {
	GetTemplate(ctx context.Context, owner string) (*domain.StoredTemplate, error)
	PutTemplate(ctx context.Context, t *domain.StoredTemplate) error
	GetResumeRecord(ctx context.Context, owner string) (model.ResumeRecord, error)
	PutResumeRecord(ctx context.Context, owner string, rec model.ResumeRecord) error
	GetRenderedResume(ctx context.Context, owner string) (*domain.RenderedResume, error)
	GetRenderedResumeByShareID(ctx context.Context, shareID string) (*domain.RenderedResume, error)
	PutRenderedResume(ctx context.Context, r *domain.RenderedResume) error
	IncrementViews(ctx context.Context, shareID string) (int64, error)
}

// ViewCounter keeps share-link view counts outside the main storage.
type ViewCounter interface {
	Incr(ctx context.Context, shareID string) (int64, error)
	Get(ctx context.Context, shareID string) (int64, error)
}

// ErrRendererUnavailable is returned by RenderPDF when no renderer is wired.
var ErrRendererUnavailable = errors.New("pdf renderer not configured")

var (
	// ErrInvalidOwner is returned for a blank owner key.
	ErrInvalidOwner = errors.New("owner key is required")
	// ErrInvalidRecord is returned by UpdateRecord for a body that is not JSON.
	ErrInvalidRecord = errors.New("record is not valid json")
)

type Config struct {
	Records   *extractor.Extractor
	Templates *layout.Extractor
	Filler    *filler.Filler
	Store     Storage
	// Views is optional; without it view counts live in Store.
	Views ViewCounter
	// Renderer is optional; without it RenderPDF fails.
	Renderer      Renderer
	UploadDir     string
	RenderTimeout time.Duration
}

type Processor struct {
	records   *extractor.Extractor
	templates *layout.Extractor
	filler    *filler.Filler
	store     Storage
	views     ViewCounter
	renderer  Renderer

	uploadDir     string
	renderTimeout time.Duration
	renderBackoff time.Duration
	now           func() time.Time
	log           *slog.Logger
}

func NewProcessor(cfg Config) *Processor {
	dir := cfg.UploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	timeout := cfg.RenderTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Processor{
		records:       cfg.Records,
		templates:     cfg.Templates,
		filler:        cfg.Filler,
		store:         cfg.Store,
		views:         cfg.Views,
		renderer:      cfg.Renderer,
		uploadDir:     dir,
		renderTimeout: timeout,
		renderBackoff: time.Second,
		now:           time.Now,
		log:           slog.With("component", "processor"),
	}
}

// UploadPrefix names every temporary upload file so the janitor can find
// leftovers.
const UploadPrefix = "upload-"

// IngestResult is the outcome of an upload.
type IngestResult struct {
	Record     model.ResumeRecord     `json:"record"`
	TemplateID uuid.UUID              `json:"template_id"`
	Resume     *domain.RenderedResume `json:"resume"`
}

// Ingest stores an uploaded document for owner: the text becomes the new
// record, the layout becomes the new template, and the résumé is rendered
// again. The temporary file is removed on every path.
func (p *Processor) Ingest(ctx context.Context, owner, filename string, r io.Reader) (*IngestResult, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrInvalidOwner
	}
	if _, err := loader.FormatOf(filename); err != nil {
		return nil, err
	}
	log := p.log.With("operation", "ingest", "owner", owner, "file", filename)

	tmp, err := os.CreateTemp(p.uploadDir, UploadPrefix+"*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("could not remove upload file", "path", tmp.Name(), "error", err)
		}
	}()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write upload file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close upload file: %w", err)
	}

	doc, err := loader.Load(tmp.Name())
	if err != nil {
		return nil, err
	}
	doc.Name = filepath.Base(filename)
	log.Info("document loaded", "format", string(doc.Format), "chars", len(doc.Text), "pages", len(doc.Layout.Pages))

	rec, err := p.records.Extract(ctx, doc.Text)
	if err != nil {
		return nil, err
	}
	if !rec.Renderable() {
		return nil, domain.ErrNoRenderableContent
	}
	tpl, err := p.templates.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	stored := &domain.StoredTemplate{ID: uuid.New(), OwnerKey: owner, Template: tpl, CreatedAt: p.now().UTC()}
	if err := p.store.PutTemplate(ctx, stored); err != nil {
		return nil, fmt.Errorf("store template: %w", err)
	}
	if err := p.store.PutResumeRecord(ctx, owner, rec); err != nil {
		return nil, fmt.Errorf("store record: %w", err)
	}
	log.Info("upload stored", "sections", len(rec.Sections), "template_id", stored.ID, "template_source", tpl.Source, "template_degraded", tpl.Degraded)

	res, err := p.Render(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &IngestResult{Record: rec, TemplateID: stored.ID, Resume: res}, nil
}

// UpdateRecord replaces the owner's record with raw JSON and renders again.
// The JSON must satisfy the record schema.
func (p *Processor) UpdateRecord(ctx context.Context, owner string, raw []byte) (*domain.RenderedResume, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrInvalidOwner
	}
	rec, problems, err := model.DecodeRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if len(problems) > 0 {
		return nil, &domain.SchemaValidationError{Problems: problems, Raw: string(raw)}
	}
	rec = rec.Filter()
	if len(rec.Sections) == 0 {
		return nil, domain.ErrNoRenderableContent
	}
	if err := p.store.PutResumeRecord(ctx, owner, rec); err != nil {
		return nil, fmt.Errorf("store record: %w", err)
	}
	return p.Render(ctx, owner)
}

// Render fills the owner's record into the owner's template and stores the
// result. An owner without a template gets the fallback rendering. The
// share id of an earlier rendering is kept.
func (p *Processor) Render(ctx context.Context, owner string) (*domain.RenderedResume, error) {
	rec, err := p.store.GetResumeRecord(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	var tpl model.Template
	var tplID *uuid.UUID
	switch stored, err := p.store.GetTemplate(ctx, owner); {
	case err == nil:
		tpl = stored.Template
		id := stored.ID
		tplID = &id
	case errors.Is(err, domain.ErrNotFound):
		p.log.Info("owner has no template", "owner", owner)
	default:
		return nil, fmt.Errorf("load template: %w", err)
	}

	out, err := p.filler.Fill(ctx, tpl, rec)
	if err != nil {
		return nil, err
	}

	now := p.now().UTC()
	res := &domain.RenderedResume{ID: uuid.New(), OwnerKey: owner, CreatedAt: now}
	switch prev, err := p.store.GetRenderedResume(ctx, owner); {
	case err == nil:
		res.ID = prev.ID
		res.ShareID = prev.ShareID
		res.CreatedAt = prev.CreatedAt
		res.ViewCount = prev.ViewCount
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, fmt.Errorf("load rendered resume: %w", err)
	}
	if res.ShareID == "" {
		res.ShareID = domain.NewShareID(owner, now)
	}
	res.HTML = out.HTML
	res.Metadata = out.Metadata
	res.TemplateID = tplID
	res.Degraded = out.Degraded
	res.UpdatedAt = now

	if err := p.store.PutRenderedResume(ctx, res); err != nil {
		return nil, fmt.Errorf("store rendered resume: %w", err)
	}
	p.log.Info("resume rendered", "owner", owner, "resume_id", res.ShareID, "degraded", res.Degraded, "bytes", len(res.HTML))
	return res, nil
}

// Resume returns the owner's current rendering with an up-to-date view count.
func (p *Processor) Resume(ctx context.Context, owner string) (*domain.RenderedResume, error) {
	res, err := p.store.GetRenderedResume(ctx, owner)
	if err != nil {
		return nil, err
	}
	p.refreshViews(ctx, res)
	return res, nil
}

// View returns a shared résumé and counts the view.
func (p *Processor) View(ctx context.Context, shareID string) (*domain.RenderedResume, error) {
	res, err := p.store.GetRenderedResumeByShareID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	var n int64
	if p.views != nil {
		n, err = p.views.Incr(ctx, shareID)
	} else {
		n, err = p.store.IncrementViews(ctx, shareID)
	}
	if err != nil {
		p.log.Warn("view count not updated", "resume_id", shareID, "error", err)
		return res, nil
	}
	res.ViewCount = n
	return res, nil
}

func (p *Processor) refreshViews(ctx context.Context, res *domain.RenderedResume) {
	if p.views == nil {
		return
	}
	n, err := p.views.Get(ctx, res.ShareID)
	if err != nil {
		p.log.Warn("view count unavailable", "resume_id", res.ShareID, "error", err)
		return
	}
	res.ViewCount = n
}

// RenderPDF converts a shared résumé to PDF. The renderer is tried three
// times with exponential backoff and its output must carry a PDF signature.
func (p *Processor) RenderPDF(ctx context.Context, shareID string) ([]byte, error) {
	if p.renderer == nil {
		return nil, ErrRendererUnavailable
	}
	res, err := p.store.GetRenderedResumeByShareID(ctx, shareID)
	if err != nil {
		return nil, err
	}

	var pdfBytes []byte
	var renderErr error
	attempts := 3
	for i := 0; i < attempts; i++ {
		pdfBytes, renderErr = p.renderOnce(ctx, res.HTML)
		if renderErr == nil {
			if len(pdfBytes) > 0 && strings.HasPrefix(string(pdfBytes), "%PDF") {
				return pdfBytes, nil
			}
			renderErr = fmt.Errorf("invalid PDF output (len=%d)", len(pdfBytes))
		}
		p.log.Warn("render attempt failed", "resume_id", shareID, "attempt", i+1, "error", renderErr)
		if i < attempts-1 {
			backoff := time.Duration(1<<i) * p.renderBackoff
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("rendering failed after %d attempts: %w", attempts, renderErr)
}

func (p *Processor) renderOnce(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.renderTimeout)
	defer cancel()
	return p.renderer.RenderHTMLToPDF(ctx, html)
}
