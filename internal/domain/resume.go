package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"resume-filler/internal/model"

	"github.com/google/uuid"
)

// RenderedResume is the stored output of a render for one owner. There is a
// single rendered résumé per owner; each render replaces the previous one
// but keeps its share id.
type RenderedResume struct {
	ID         uuid.UUID         `json:"id"`
	OwnerKey   string            `json:"owner_key"`
	ShareID    string            `json:"resume_id"`
	HTML       string            `json:"html_content,omitempty"`
	Metadata   model.ContactInfo `json:"metadata"`
	TemplateID *uuid.UUID        `json:"template_id,omitempty"`
	Degraded   bool              `json:"degraded"`
	ViewCount  int64             `json:"view_count"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ShareLink is the public path under which the résumé is served.
func (r *RenderedResume) ShareLink() string {
	return "/resume/" + r.ShareID
}

// StoredTemplate is the default template of an owner. A new upload replaces
// it wholesale.
type StoredTemplate struct {
	ID        uuid.UUID      `json:"id"`
	OwnerKey  string         `json:"owner_key"`
	Template  model.Template `json:"template"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewShareID derives an opaque 16 hex character id from the owner key, the
// current time and a random uuid.
func NewShareID(ownerKey string, now time.Time) string {
	sum := sha256.Sum256([]byte(ownerKey + "_" + now.UTC().Format(time.RFC3339Nano) + "_" + uuid.NewString()))
	return hex.EncodeToString(sum[:])[:16]
}
