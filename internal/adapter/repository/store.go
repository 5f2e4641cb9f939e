package repository

import (
	"context"
	"encoding/json"

	"resume-filler/internal/domain"
	"resume-filler/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
)

// Store keeps templates, records and rendered résumés in Postgres, one row
// per owner in each table. Writes are single-statement upserts, so the last
// write for an owner wins.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetTemplate(ctx context.Context, owner string) (*domain.StoredTemplate, error) {
	t := &domain.StoredTemplate{OwnerKey: owner}
	var variant string
	err := s.pool.QueryRow(ctx, `SELECT id, html, css, variant, degraded, source, created_at
		FROM resume_templates WHERE owner_key = $1`, owner).
		Scan(&t.ID, &t.Template.HTML, &t.Template.CSS, &variant, &t.Template.Degraded, &t.Template.Source, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err, "get template")
	}
	t.Template.Variant = model.Variant(variant)
	return t, nil
}

func (s *Store) PutTemplate(ctx context.Context, t *domain.StoredTemplate) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO resume_templates (owner_key, id, html, css, variant, degraded, source, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (owner_key) DO UPDATE SET id = EXCLUDED.id, html = EXCLUDED.html, css = EXCLUDED.css, variant = EXCLUDED.variant, degraded = EXCLUDED.degraded, source = EXCLUDED.source, created_at = EXCLUDED.created_at`,
		t.OwnerKey, t.ID, t.Template.HTML, t.Template.CSS, string(t.Template.Variant), t.Template.Degraded, t.Template.Source, t.CreatedAt)
	return errors.Wrap(err, "put template")
}

func (s *Store) GetResumeRecord(ctx context.Context, owner string) (model.ResumeRecord, error) {
	var rec model.ResumeRecord
	if err := queryJSON(ctx, s.pool, &rec, `SELECT record FROM resume_records WHERE owner_key = $1`, owner); err != nil {
		return model.ResumeRecord{}, notFound(err, "get record")
	}
	return rec.Filter(), nil
}

func (s *Store) PutResumeRecord(ctx context.Context, owner string, rec model.ResumeRecord) error {
	b, err := json.Marshal(rec.Filter())
	if err != nil {
		return errors.Wrap(err, "encode record")
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO resume_records (owner_key, record, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (owner_key) DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`,
		owner, b)
	return errors.Wrap(err, "put record")
}

const resumeColumns = `id, owner_key, resume_id, html_content, metadata, template_id, degraded, view_count, created_at, updated_at`

func (s *Store) GetRenderedResume(ctx context.Context, owner string) (*domain.RenderedResume, error) {
	return s.scanResume(ctx, `SELECT `+resumeColumns+` FROM rendered_resumes WHERE owner_key = $1`, owner)
}

func (s *Store) GetRenderedResumeByShareID(ctx context.Context, shareID string) (*domain.RenderedResume, error) {
	return s.scanResume(ctx, `SELECT `+resumeColumns+` FROM rendered_resumes WHERE resume_id = $1`, shareID)
}

func (s *Store) scanResume(ctx context.Context, sql string, arg string) (*domain.RenderedResume, error) {
	r := &domain.RenderedResume{}
	var meta []byte
	var tplID *uuid.UUID
	err := s.pool.QueryRow(ctx, sql, arg).Scan(&r.ID, &r.OwnerKey, &r.ShareID, &r.HTML, &meta, &tplID,
		&r.Degraded, &r.ViewCount, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "get rendered resume")
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &r.Metadata); err != nil {
			return nil, errors.Wrap(err, "decode metadata")
		}
	}
	if r.Metadata.Links == nil {
		r.Metadata.Links = []model.Link{}
	}
	r.TemplateID = tplID
	return r, nil
}

// PutRenderedResume upserts by owner. The stored view count is kept; the
// caller's count is ignored.
func (s *Store) PutRenderedResume(ctx context.Context, r *domain.RenderedResume) error {
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return errors.Wrap(err, "encode metadata")
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO rendered_resumes (`+resumeColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (owner_key) DO UPDATE SET resume_id = EXCLUDED.resume_id, html_content = EXCLUDED.html_content, metadata = EXCLUDED.metadata, template_id = EXCLUDED.template_id, degraded = EXCLUDED.degraded, updated_at = EXCLUDED.updated_at`,
		r.ID, r.OwnerKey, r.ShareID, r.HTML, meta, r.TemplateID, r.Degraded, r.ViewCount, r.CreatedAt, r.UpdatedAt)
	return errors.Wrap(err, "put rendered resume")
}

func (s *Store) IncrementViews(ctx context.Context, shareID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `UPDATE rendered_resumes SET view_count = view_count + 1
		WHERE resume_id = $1 RETURNING view_count`, shareID).Scan(&n)
	if err != nil {
		return 0, notFound(err, "increment views")
	}
	return n, nil
}

// queryJSON runs a query returning a single json value and decodes it into dst.
func queryJSON(ctx context.Context, pool *pgxpool.Pool, dst interface{}, sql string, args ...interface{}) error {
	var raw []byte
	if err := pool.QueryRow(ctx, sql, args...).Scan(&raw); err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return errors.Wrap(err, op)
}
