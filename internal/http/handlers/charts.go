package handlers

import (
	"net/http"
	"strings"

	"studio/internal/domain"
	"studio/internal/normalize"
)

// CreateChart accepts a chart generation request. Multipart bodies carry the
// data file and optional logo; plain JSON works for text-only requests.
func (a *App) CreateChart(w http.ResponseWriter, r *http.Request) {
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
	a.runGeneration(w, r, a.Charts, spec)
}

// ListCharts returns the owner's chart generations with fresh signed URLs.
func (a *App) ListCharts(w http.ResponseWriter, r *http.Request) {
	a.listGenerations(w, r, domain.ContentTypeChart)
}

func (a *App) decodeInput(r *http.Request) (normalize.RawInput, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return normalize.FromMultipart(r)
	}
	return normalize.FromJSON(r.Body)
}
