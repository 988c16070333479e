package handlers

import (
	"net/http"

	"studio/internal/domain"
	"studio/internal/normalize"
)

// CreateVideo accepts a video generation request. The handler blocks while
// the async task is polled, so write timeouts must cover the poll budget.
func (a *App) CreateVideo(w http.ResponseWriter, r *http.Request) {
	input, err := a.decodeInput(r)
	if err != nil {
		a.error(w, r, err)
		return
	}
	spec, err := normalize.Normalize(a.owner(r), input)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.runGeneration(w, r, a.Videos, spec)
}

// ListVideos returns the owner's video generations with fresh signed URLs.
func (a *App) ListVideos(w http.ResponseWriter, r *http.Request) {
	a.listGenerations(w, r, domain.ContentTypeVideo)
}
