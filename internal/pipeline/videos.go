package pipeline

import (
	"context"

	"studio/internal/domain"
	"studio/internal/poller"
	"studio/internal/prompt"
	"studio/internal/providers"
	"studio/internal/storage"
)

// Videos drives the asynchronous task provider: submit, poll to a terminal
// state, then fetch and persist the result. A poll timeout aborts the run
// before anything is recorded.
type Videos struct {
	Shared
	Provider providers.Submitter
	Status   providers.StatusFunc
	Download providers.Downloader
	Poller   *poller.Poller
}

// Run executes the full video flow for one normalized request.
func (p *Videos) Run(ctx context.Context, spec domain.GenerationSpec) (*domain.ResultRecord, error) {
	handle, err := p.Provider.Submit(ctx, prompt.EnhancementPrompt(spec), providers.Options{
		AspectRatio: spec.AspectRatio,
		Quantity:    1,
	})
	if err != nil {
		return nil, err
	}
	resultRef, err := p.Poller.AwaitCompletion(ctx, handle, p.Status)
	if err != nil {
		return nil, err
	}

	data, contentType, err := p.Download.Download(ctx, resultRef)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "download generated video")
	}
	obj, err := p.persistArtifact(ctx, domain.ContentTypeVideo, spec.OwnerID,
		storage.StageGenerated, spec.Title+".mp4", data, contentType)
	if err != nil {
		return nil, err
	}

	rec := &domain.ResultRecord{
		OwnerID:      spec.OwnerID,
		ContentType:  domain.ContentTypeVideo,
		Title:        spec.Title,
		Prompt:       spec.Prompt,
		SpecJSON:     specJSON(spec),
		StoragePaths: []string{obj.Path},
		DisplayURLs:  []string{obj.URL},
		Status:       StatusCompleted,
		Metadata: map[string]any{
			"task_id": handle.TaskID,
		},
	}
	if err := p.Coordinator.Conclude(ctx, rec); err != nil {
		return nil, err
	}
	p.Logger.Info().
		Str("owner_id", spec.OwnerID).
		Str("generation_id", rec.ID).
		Str("task_id", handle.TaskID).
		Msg("video generation complete")
	return rec, nil
}
