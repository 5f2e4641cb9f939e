package http

import (
	"context"
	"errors"
	"io"
	"time"

	"resume-filler/internal/domain"
	"resume-filler/internal/model"
	"resume-filler/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
)

// Service is the part of the processor the handlers call.
type Service interface {
	Ingest(ctx context.Context, owner, filename string, r io.Reader) (*usecase.IngestResult, error)
	UpdateRecord(ctx context.Context, owner string, raw []byte) (*domain.RenderedResume, error)
	Render(ctx context.Context, owner string) (*domain.RenderedResume, error)
	Resume(ctx context.Context, owner string) (*domain.RenderedResume, error)
	View(ctx context.Context, shareID string) (*domain.RenderedResume, error)
	RenderPDF(ctx context.Context, shareID string) ([]byte, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// NewApp builds the fiber app with middleware and routes.
func NewApp(h *Handler, bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(RequestID)
	app.Use(Logger)
	h.Register(app)
	return app
}

func (h *Handler) Register(app *fiber.App) {
	app.Get("/healthz", h.Health)

	api := app.Group("/api")
	api.Post("/uploads", h.Upload)
	api.Put("/owners/:owner/record", h.UpdateRecord)
	api.Post("/owners/:owner/render", h.Render)
	api.Get("/owners/:owner/resume", h.Resume)

	app.Get("/resume/:id", h.View)
	app.Get("/resume/:id/pdf", h.PDF)
}

// resumeView is the public JSON shape of a rendered résumé.
type resumeView struct {
	ResumeID   string            `json:"resume_id"`
	ShareLink  string            `json:"share_link"`
	Metadata   model.ContactInfo `json:"metadata"`
	TemplateID *uuid.UUID        `json:"template_id,omitempty"`
	Degraded   bool              `json:"degraded"`
	ViewCount  int64             `json:"view_count"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func viewOf(r *domain.RenderedResume) resumeView {
	return resumeView{
		ResumeID:   r.ShareID,
		ShareLink:  r.ShareLink(),
		Metadata:   r.Metadata,
		TemplateID: r.TemplateID,
		Degraded:   r.Degraded,
		ViewCount:  r.ViewCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handler) Upload(c *fiber.Ctx) error {
	owner := c.FormValue("owner")
	if owner == "" {
		return newAPIError(fiber.StatusBadRequest, "owner is required")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return newAPIError(fiber.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := h.svc.Ingest(c.UserContext(), owner, fh.Filename, f)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"record":      res.Record,
		"template_id": res.TemplateID,
		"resume":      viewOf(res.Resume),
	})
}

// UpdateRecord replaces the owner's record. A record that does not match
// the schema is the client's fault here, not the generator's.
func (h *Handler) UpdateRecord(c *fiber.Ctx) error {
	res, err := h.svc.UpdateRecord(c.UserContext(), c.Params("owner"), c.Body())
	var schemaErr *domain.SchemaValidationError
	if errors.As(err, &schemaErr) || errors.Is(err, usecase.ErrInvalidRecord) {
		return newAPIError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"resume": viewOf(res)})
}

func (h *Handler) Render(c *fiber.Ctx) error {
	res, err := h.svc.Render(c.UserContext(), c.Params("owner"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"resume": viewOf(res)})
}

func (h *Handler) Resume(c *fiber.Ctx) error {
	res, err := h.svc.Resume(c.UserContext(), c.Params("owner"))
	if err != nil {
		return err
	}
	return c.JSON(viewOf(res))
}

func (h *Handler) View(c *fiber.Ctx) error {
	res, err := h.svc.View(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(res.HTML)
}

func (h *Handler) PDF(c *fiber.Ctx) error {
	pdf, err := h.svc.RenderPDF(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="resume.pdf"`)
	return c.Send(pdf)
}
