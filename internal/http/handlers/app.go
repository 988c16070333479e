// Package handlers exposes the generation API over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/middleware"
	"studio/internal/storage"
)

// Runner executes one generation pipeline for a normalized request.
type Runner interface {
	Run(ctx context.Context, spec domain.GenerationSpec) (*domain.ResultRecord, error)
}

// App bundles the handler dependencies.
type App struct {
	Results domain.ResultRepository
	Library domain.LibraryRepository
	Store   storage.ObjectStore
	Charts  Runner
	Images  Runner
	Videos  Runner
	Logger  zerolog.Logger
	URLTTL  time.Duration
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes the classified error body. Content policy rejections share the
// 400 status with validation errors but keep their own error_type so clients
// can react differently.
func (a *App) error(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case domain.ErrKindValidation, domain.ErrKindContentPolicy:
		status = http.StatusBadRequest
	case domain.ErrKindPollTimeout, domain.ErrKindProviderSubmission:
		status = http.StatusBadGateway
	}
	errType := string(kind)
	if errors.Is(err, domain.ErrNotFound) {
		status = http.StatusNotFound
		errType = "not_found"
	}
	if status >= 500 {
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		a.Logger.Warn().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}
	a.json(w, status, map[string]string{
		"error":      err.Error(),
		"error_type": errType,
	})
}

func decodeJSONBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.WrapError(domain.ErrKindValidation, err, "invalid json body")
	}
	return nil
}

// fetchObject reads artifact bytes back out of storage for zip downloads.
func (a *App) fetchObject(ctx context.Context, key string) ([]byte, string, error) {
	reader, ok := a.Store.(storage.ObjectReader)
	if !ok {
		return nil, "", domain.Errorf(domain.ErrKindInternal, "storage backend does not support downloads")
	}
	data, contentType, err := reader.Get(ctx, key)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrKindStorageWrite, err, "fetch artifact")
	}
	return data, contentType, nil
}

func (a *App) owner(r *http.Request) string {
	return middleware.OwnerFromContext(r.Context())
}

func (a *App) urlTTL() time.Duration {
	if a.URLTTL > 0 {
		return a.URLTTL
	}
	return storage.SignedURLTTL
}

// refreshDisplayURLs re-signs the record's displayable artifacts. Raw
// intermediates never qualify regardless of what the stored display list
// says.
func (a *App) refreshDisplayURLs(ctx context.Context, rec *domain.ResultRecord) ([]string, error) {
	var urls []string
	for _, path := range rec.StoragePaths {
		if !displayable(path) {
			continue
		}
		url, err := a.Store.SignedURL(ctx, path, a.urlTTL())
		if err != nil {
			return nil, domain.WrapError(domain.ErrKindStorageWrite, err, "refresh signed url")
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// displayable reports whether a storage path holds a user-facing artifact.
func displayable(path string) bool {
	return strings.Contains(path, "/"+storage.StageGenerated+"/") &&
		!strings.HasSuffix(path, ".py")
}

func listParams(r *http.Request) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// generationView is the wire shape of one generation in list responses.
type generationView struct {
	ID          string         `json:"id"`
	ContentType string         `json:"contentType"`
	Title       string         `json:"title"`
	Prompt      string         `json:"prompt"`
	Status      string         `json:"status"`
	DisplayURLs []string       `json:"displayUrls"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func (a *App) listGenerations(w http.ResponseWriter, r *http.Request, contentType string) {
	limit, offset := listParams(r)
	records, err := a.Results.ListByOwner(r.Context(), a.owner(r), contentType, limit, offset)
	if err != nil {
		a.error(w, r, err)
		return
	}
	views := make([]generationView, 0, len(records))
	for i := range records {
		rec := &records[i]
		urls, err := a.refreshDisplayURLs(r.Context(), rec)
		if err != nil {
			a.error(w, r, err)
			return
		}
		views = append(views, generationView{
			ID:          rec.ID,
			ContentType: rec.ContentType,
			Title:       rec.Title,
			Prompt:      rec.Prompt,
			Status:      rec.Status,
			DisplayURLs: urls,
			Metadata:    rec.Metadata,
			CreatedAt:   rec.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": views})
}

// creationMetadata carries the record id, completion time, and the normalized
// settings snapshot the generation ran with.
type creationMetadata struct {
	GenerationID string          `json:"generationId"`
	Timestamp    time.Time       `json:"timestamp"`
	Settings     json.RawMessage `json:"settings,omitempty"`
}

// creationResponse is the wire shape of a successful generation request.
// Image-producing pipelines report their artifacts under "images", video
// pipelines under "urls".
type creationResponse struct {
	Success  bool             `json:"success"`
	Images   []string         `json:"images,omitempty"`
	URLs     []string         `json:"urls,omitempty"`
	Metadata creationMetadata `json:"metadata"`
}

func (a *App) runGeneration(w http.ResponseWriter, r *http.Request, runner Runner, spec domain.GenerationSpec) {
	rec, err := runner.Run(r.Context(), spec)
	if err != nil {
		a.error(w, r, err)
		return
	}
	resp := creationResponse{
		Success: true,
		Metadata: creationMetadata{
			GenerationID: rec.ID,
			Timestamp:    rec.CreatedAt,
			Settings:     json.RawMessage(rec.SpecJSON),
		},
	}
	if rec.ContentType == domain.ContentTypeVideo {
		resp.URLs = rec.DisplayURLs
	} else {
		resp.Images = rec.DisplayURLs
	}
	a.json(w, http.StatusCreated, resp)
}
