// Package persist coordinates the two writes that conclude a generation: the
// canonical result row, which aborts the job on failure, and the library
// index, which is best-effort.
package persist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studio/internal/domain"
)

// Coordinator runs the finalize-then-index sequence.
type Coordinator struct {
	results domain.ResultRepository
	library domain.LibraryRepository
	logger  zerolog.Logger
	now     func() time.Time
}

// NewCoordinator wires the repositories.
func NewCoordinator(results domain.ResultRepository, library domain.LibraryRepository, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		results: results,
		library: library,
		logger:  logger,
		now:     time.Now,
	}
}

// Finalize writes the canonical generation row. A failure here means the job
// as a whole failed, even though artifacts may already sit in storage.
func (c *Coordinator) Finalize(ctx context.Context, rec *domain.ResultRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = c.now()
	}
	if err := c.results.Create(ctx, rec); err != nil {
		return domain.WrapError(domain.ErrKindStorageWrite, err, "persist generation record")
	}
	return nil
}

// Index adds the generation to the owner's library. Failures are logged and
// swallowed: the primary record already exists and the job stays successful.
// The returned error is always nil; the signature keeps call sites honest
// about having run the step.
func (c *Coordinator) Index(ctx context.Context, rec *domain.ResultRecord) error {
	entry := &domain.LibraryEntry{
		ID:          uuid.NewString(),
		OwnerID:     rec.OwnerID,
		ContentType: rec.ContentType,
		ContentID:   rec.ID,
		DateAdded:   c.now(),
	}
	if err := c.library.Add(ctx, entry); err != nil {
		wrapped := domain.WrapError(domain.ErrKindSecondaryPersistence, err, "library index insert")
		c.logger.Warn().
			Err(wrapped).
			Str("owner_id", rec.OwnerID).
			Str("content_id", rec.ID).
			Str("content_type", rec.ContentType).
			Msg("library indexing failed, generation kept")
	}
	return nil
}

// Conclude runs Finalize then Index. It is the one entry point pipelines
// should use so the ordering invariant cannot be violated.
func (c *Coordinator) Conclude(ctx context.Context, rec *domain.ResultRecord) error {
	if err := c.Finalize(ctx, rec); err != nil {
		return err
	}
	return c.Index(ctx, rec)
}
