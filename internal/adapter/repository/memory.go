package repository

import (
	"context"
	"sync"

	"resume-filler/internal/domain"
	"resume-filler/internal/model"
)

// MemoryStore keeps everything in process memory. It backs the service when
// no DATABASE_URL is configured and is used by tests.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[string]domain.StoredTemplate
	records   map[string]model.ResumeRecord
	resumes   map[string]domain.RenderedResume
	shares    map[string]string // share id -> owner
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		templates: map[string]domain.StoredTemplate{},
		records:   map[string]model.ResumeRecord{},
		resumes:   map[string]domain.RenderedResume{},
		shares:    map[string]string{},
	}
}

func (s *MemoryStore) GetTemplate(_ context.Context, owner string) (*domain.StoredTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[owner]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (s *MemoryStore) PutTemplate(_ context.Context, t *domain.StoredTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.OwnerKey] = *t
	return nil
}

func (s *MemoryStore) GetResumeRecord(_ context.Context, owner string) (model.ResumeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[owner]
	if !ok {
		return model.ResumeRecord{}, domain.ErrNotFound
	}
	// Filter copies every slice.
	return rec.Filter(), nil
}

func (s *MemoryStore) PutResumeRecord(_ context.Context, owner string, rec model.ResumeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[owner] = rec.Filter()
	return nil
}

func (s *MemoryStore) GetRenderedResume(_ context.Context, owner string) (*domain.RenderedResume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resumes[owner]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneResume(r), nil
}

func (s *MemoryStore) GetRenderedResumeByShareID(_ context.Context, shareID string) (*domain.RenderedResume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.shares[shareID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneResume(s.resumes[owner]), nil
}

func (s *MemoryStore) PutRenderedResume(_ context.Context, r *domain.RenderedResume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.resumes[r.OwnerKey]; ok && prev.ShareID != r.ShareID {
		delete(s.shares, prev.ShareID)
	}
	s.resumes[r.OwnerKey] = *cloneResume(*r)
	s.shares[r.ShareID] = r.OwnerKey
	return nil
}

func (s *MemoryStore) IncrementViews(_ context.Context, shareID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.shares[shareID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	r := s.resumes[owner]
	r.ViewCount++
	s.resumes[owner] = r
	return r.ViewCount, nil
}

func cloneResume(r domain.RenderedResume) *domain.RenderedResume {
	r.Metadata.Links = append([]model.Link{}, r.Metadata.Links...)
	if r.TemplateID != nil {
		id := *r.TemplateID
		r.TemplateID = &id
	}
	return &r
}
