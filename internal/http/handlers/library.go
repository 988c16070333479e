package handlers

import (
	"fmt"
	"net/http"
	"path"
	"time"

	"studio/internal/domain"
	"studio/pkg/zip"
)

// libraryView joins a library entry with its generation record.
type libraryView struct {
	ID          string    `json:"id"`
	ContentType string    `json:"contentType"`
	ContentID   string    `json:"contentId"`
	Title       string    `json:"title"`
	DisplayURLs []string  `json:"displayUrls"`
	DateAdded   time.Time `json:"dateAdded"`
}

// ListLibrary returns the owner's cross-content-type library, newest first.
// Entries whose generation row is missing are skipped rather than failing
// the whole listing: the index is best-effort on the write side too.
func (a *App) ListLibrary(w http.ResponseWriter, r *http.Request) {
	owner := a.owner(r)
	entries, err := a.Library.ListByOwner(r.Context(), owner, r.URL.Query().Get("contentType"))
	if err != nil {
		a.error(w, r, err)
		return
	}
	views := make([]libraryView, 0, len(entries))
	for _, entry := range entries {
		rec, err := a.Results.GetByID(r.Context(), owner, entry.ContentID)
		if err != nil {
			if err == domain.ErrNotFound {
				continue
			}
			a.error(w, r, err)
			return
		}
		urls, err := a.refreshDisplayURLs(r.Context(), rec)
		if err != nil {
			a.error(w, r, err)
			return
		}
		views = append(views, libraryView{
			ID:          entry.ID,
			ContentType: entry.ContentType,
			ContentID:   entry.ContentID,
			Title:       rec.Title,
			DisplayURLs: urls,
			DateAdded:   entry.DateAdded,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": views})
}

// RefreshURLs re-signs the display URLs of one generation.
func (a *App) RefreshURLs(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ContentID string `json:"contentId"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		a.error(w, r, err)
		return
	}
	if body.ContentID == "" {
		a.error(w, r, domain.Errorf(domain.ErrKindValidation, "contentId is required"))
		return
	}
	rec, err := a.Results.GetByID(r.Context(), a.owner(r), body.ContentID)
	if err != nil {
		a.error(w, r, err)
		return
	}
	urls, err := a.refreshDisplayURLs(r.Context(), rec)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"contentId":   rec.ID,
		"displayUrls": urls,
	})
}

// DownloadGeneration streams a zip of one generation's displayable artifacts.
func (a *App) DownloadGeneration(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("contentId")
	if id == "" {
		a.error(w, r, domain.Errorf(domain.ErrKindValidation, "contentId is required"))
		return
	}
	rec, err := a.Results.GetByID(r.Context(), a.owner(r), id)
	if err != nil {
		a.error(w, r, err)
		return
	}
	var assets []zip.Asset
	for _, storagePath := range rec.StoragePaths {
		if !displayable(storagePath) {
			continue
		}
		data, contentType, err := a.fetchObject(r.Context(), storagePath)
		if err != nil {
			a.error(w, r, err)
			return
		}
		assets = append(assets, zip.Asset{
			Filename: path.Base(storagePath),
			MIME:     contentType,
			Data:     data,
		})
	}
	if len(assets) == 0 {
		a.error(w, r, domain.ErrNotFound)
		return
	}
	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.error(w, r, domain.WrapError(domain.ErrKindInternal, err, "archive artifacts"))
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Title+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
