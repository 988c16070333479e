package pipeline

import (
	"context"
	"fmt"

	"studio/internal/domain"
	"studio/internal/prompt"
	"studio/internal/providers"
	"studio/internal/storage"
)

// Images drives the synchronous image provider. Submission blocks until the
// provider has the result, so no polling is involved.
type Images struct {
	Shared
	Provider providers.Submitter
	Download providers.Downloader
}

// Run generates spec.Quantity images and persists each one.
func (p *Images) Run(ctx context.Context, spec domain.GenerationSpec) (*domain.ResultRecord, error) {
	visualPrompt := prompt.EnhancementPrompt(spec)

	var refURLs []string
	var storagePaths []string
	if spec.HasLogoFile() {
		logo, err := p.persistArtifact(ctx, domain.ContentTypeImage, spec.OwnerID,
			storage.StageLogo, spec.LogoFile.Name, spec.LogoFile.Data, spec.LogoFile.ContentType)
		if err != nil {
			return nil, err
		}
		refURLs = append(refURLs, logo.URL)
		storagePaths = append(storagePaths, logo.Path)
	}

	quantity := spec.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	var displayURLs []string
	for i := 0; i < quantity; i++ {
		handle, err := p.Provider.Submit(ctx, visualPrompt, providers.Options{
			AspectRatio: spec.AspectRatio,
			Quantity:    1,
			ImageURLs:   refURLs,
		})
		if err != nil {
			return nil, err
		}
		data, contentType, err := p.Download.Download(ctx, handle.ResultRef)
		if err != nil {
			return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "download generated image")
		}
		obj, err := p.persistArtifact(ctx, domain.ContentTypeImage, spec.OwnerID,
			storage.StageGenerated, fmt.Sprintf("%s-%d.png", spec.Title, i+1), data, contentType)
		if err != nil {
			return nil, err
		}
		storagePaths = append(storagePaths, obj.Path)
		displayURLs = append(displayURLs, obj.URL)
	}

	rec := &domain.ResultRecord{
		OwnerID:      spec.OwnerID,
		ContentType:  domain.ContentTypeImage,
		Title:        spec.Title,
		Prompt:       spec.Prompt,
		SpecJSON:     specJSON(spec),
		StoragePaths: storagePaths,
		DisplayURLs:  displayURLs,
		Status:       StatusCompleted,
		Metadata: map[string]any{
			"quantity": quantity,
		},
	}
	if err := p.Coordinator.Conclude(ctx, rec); err != nil {
		return nil, err
	}
	p.Logger.Info().
		Str("owner_id", spec.OwnerID).
		Str("generation_id", rec.ID).
		Int("images", len(displayURLs)).
		Msg("image generation complete")
	return rec, nil
}
