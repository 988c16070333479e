package handlers

import (
	"net/http"

	"studio/internal/domain"
	"studio/internal/normalize"
)

// CreateImage accepts an image generation request.
func (a *App) CreateImage(w http.ResponseWriter, r *http.Request) {
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
	a.runGeneration(w, r, a.Images, spec)
}

// ListImages returns the owner's image generations with fresh signed URLs.
func (a *App) ListImages(w http.ResponseWriter, r *http.Request) {
	a.listGenerations(w, r, domain.ContentTypeImage)
}
