// Package pipeline composes the generation flows: compile a prompt, drive
// the provider, persist artifacts, and conclude with the record writes. One
// pipeline exists per content type.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/persist"
	"studio/internal/storage"
)

// StatusCompleted marks a generation whose artifacts are all in storage.
const StatusCompleted = "completed"

// CodeGenerator produces a Python chart script from a compiled prompt.
type CodeGenerator interface {
	GenerateChartCode(ctx context.Context, prompt string, dataFile *domain.Upload) (string, error)
}

// CodeExecutor runs a chart script in a sandbox and returns the rendered PNG.
type CodeExecutor interface {
	Execute(ctx context.Context, code string, dataFile *domain.Upload) ([]byte, error)
}

// Shared holds the collaborators every pipeline needs.
type Shared struct {
	Store       storage.ObjectStore
	Coordinator *persist.Coordinator
	Logger      zerolog.Logger
	URLTTL      time.Duration
}

func (s Shared) urlTTL() time.Duration {
	if s.URLTTL > 0 {
		return s.URLTTL
	}
	return storage.SignedURLTTL
}

// storedObject is an artifact that made it into storage.
type storedObject struct {
	Path string
	URL  string
}

// persistArtifact uploads the bytes under the deterministic key layout and
// signs a fresh URL for them.
func (s Shared) persistArtifact(ctx context.Context, category, ownerID, stage, filename string, data []byte, contentType string) (storedObject, error) {
	key := storage.ObjectPath(category, ownerID, stage, filename)
	cleanKey, err := s.Store.Upload(ctx, key, data, contentType)
	if err != nil {
		return storedObject{}, domain.WrapError(domain.ErrKindStorageWrite, err, "upload artifact")
	}
	url, err := s.Store.SignedURL(ctx, cleanKey, s.urlTTL())
	if err != nil {
		return storedObject{}, domain.WrapError(domain.ErrKindStorageWrite, err, "sign artifact url")
	}
	return storedObject{Path: cleanKey, URL: url}, nil
}

// specJSON serializes the request for the record. Upload payloads are
// dropped: their bytes live in storage, not in the database row.
func specJSON(spec domain.GenerationSpec) []byte {
	spec.DataFile = nil
	spec.LogoFile = nil
	b, err := json.Marshal(spec)
	if err != nil {
		return nil
	}
	return b
}
