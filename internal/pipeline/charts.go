package pipeline

import (
	"context"

	"studio/internal/domain"
	"studio/internal/prompt"
	"studio/internal/providers"
	"studio/internal/repair"
	"studio/internal/storage"
)

// Charts renders a chart in two hops: a sandboxed matplotlib render of the
// real data, then a provider pass that enhances the raw render into the
// styled final image. Only the enhanced image is ever surfaced to the user.
type Charts struct {
	Shared
	Generator CodeGenerator
	Executor  CodeExecutor
	Enhancer  providers.Submitter
	Download  providers.Downloader
}

// Run executes the full chart flow for one normalized request.
func (p *Charts) Run(ctx context.Context, spec domain.GenerationSpec) (*domain.ResultRecord, error) {
	codePrompt := prompt.CodePrompt(spec)
	code, err := p.Generator.GenerateChartCode(ctx, codePrompt, spec.DataFile)
	if err != nil {
		return nil, err
	}
	dataName := "data.csv"
	if spec.HasDataFile() {
		dataName = spec.DataFile.Name
	}
	code = repair.Code(code, dataName)

	png, err := p.Executor.Execute(ctx, code, spec.DataFile)
	if err != nil {
		return nil, err
	}

	raw, err := p.persistArtifact(ctx, domain.ContentTypeChart, spec.OwnerID,
		storage.StageRaw, spec.Title+".png", png, "image/png")
	if err != nil {
		return nil, err
	}
	script, err := p.persistArtifact(ctx, domain.ContentTypeChart, spec.OwnerID,
		storage.StageRaw, spec.Title+".py", []byte(code), "text/x-python")
	if err != nil {
		return nil, err
	}

	imageURLs := []string{raw.URL}
	storagePaths := []string{raw.Path, script.Path}
	if spec.HasLogoFile() {
		logo, err := p.persistArtifact(ctx, domain.ContentTypeChart, spec.OwnerID,
			storage.StageLogo, spec.LogoFile.Name, spec.LogoFile.Data, spec.LogoFile.ContentType)
		if err != nil {
			return nil, err
		}
		imageURLs = append(imageURLs, logo.URL)
		storagePaths = append(storagePaths, logo.Path)
	}

	// Enhancement is mandatory: a raw matplotlib render is never an
	// acceptable user-facing result, so a failure here fails the job.
	handle, err := p.Enhancer.Submit(ctx, prompt.EnhancementPrompt(spec), providers.Options{
		AspectRatio: spec.AspectRatio,
		Quantity:    1,
		ImageURLs:   imageURLs,
	})
	if err != nil {
		return nil, err
	}
	enhancedBytes, contentType, err := p.Download.Download(ctx, handle.ResultRef)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "download enhanced chart")
	}
	enhanced, err := p.persistArtifact(ctx, domain.ContentTypeChart, spec.OwnerID,
		storage.StageGenerated, spec.Title+".png", enhancedBytes, contentType)
	if err != nil {
		return nil, err
	}
	storagePaths = append(storagePaths, enhanced.Path)

	rec := &domain.ResultRecord{
		OwnerID:      spec.OwnerID,
		ContentType:  domain.ContentTypeChart,
		Title:        spec.Title,
		Prompt:       spec.Prompt,
		SpecJSON:     specJSON(spec),
		StoragePaths: storagePaths,
		DisplayURLs:  []string{enhanced.URL},
		Status:       StatusCompleted,
		Metadata: map[string]any{
			"chart_type":    spec.ChartType,
			"raw_path":      raw.Path,
			"enhanced_path": enhanced.Path,
		},
	}
	if err := p.Coordinator.Conclude(ctx, rec); err != nil {
		return nil, err
	}
	p.Logger.Info().
		Str("owner_id", spec.OwnerID).
		Str("generation_id", rec.ID).
		Str("chart_type", spec.ChartType).
		Msg("chart generation complete")
	return rec, nil
}
