package normalize

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"studio/internal/domain"
)

const maxUploadMemory = 32 << 20

// RawInput is a request payload before normalization. Multipart forms and
// JSON bodies both decode into it; every field is optional at this stage.
type RawInput struct {
	Title       string `json:"title"`
	Prompt      string `json:"prompt"`
	Description string `json:"description"`

	DataSource      string `json:"dataSource"`
	AggregationType string `json:"aggregationType"`
	Units           string `json:"units"`
	Labels          string `json:"labels"`

	Purpose     string `json:"purpose"`
	ChartType   string `json:"chartType"`
	Orientation string `json:"orientation"`
	MultiSeries string `json:"multiSeries"`

	ArtDirection      string `json:"artDirection"`
	VisualInfluence   string `json:"visualInfluence"`
	ChartDepth        string `json:"chartDepth"`
	BackgroundTexture string `json:"backgroundTexture"`
	AccentShapes      string `json:"accentShapes"`

	MoodContext         string `json:"moodContext"`
	ToneIntensity       string `json:"toneIntensity"`
	LightingTemperature string `json:"lightingTemperature"`
	MotionAccent        string `json:"motionAccent"`

	BrandSync       string `json:"brandSync"`
	PaletteMode     string `json:"paletteMode"`
	BackgroundType  string `json:"backgroundType"`
	FontFamily      string `json:"fontFamily"`
	LogoPlacement   string `json:"logoPlacement"`
	LogoDescription string `json:"logoDescription"`
	ColorPalette    string `json:"colorPalette"`

	DataLabels       string `json:"dataLabels"`
	LabelPlacement   string `json:"labelPlacement"`
	Legends          string `json:"legends"`
	Callouts         string `json:"callouts"`
	CalloutThreshold string `json:"calloutThreshold"`
	AxisTitles       string `json:"axisTitles"`
	Gridlines        string `json:"gridlines"`

	LayoutTemplate  string `json:"layoutTemplate"`
	AspectRatio     string `json:"aspectRatio"`
	MarginDensity   string `json:"marginDensity"`
	SafeZoneOverlay string `json:"safeZoneOverlay"`
	ExportPreset    string `json:"exportPreset"`

	Headline string `json:"headline"`
	Caption  string `json:"caption"`
	Tone     string `json:"tone"`
	Platform string `json:"platform"`

	Quantity string `json:"quantity"`

	DataFile *domain.Upload `json:"-"`
	LogoFile *domain.Upload `json:"-"`
}

// dataSourceByExt maps upload extensions to concrete data-source kinds when
// the request used the generic "file" sentinel.
var dataSourceByExt = map[string]string{
	"csv":  "csv",
	"xlsx": "excel",
	"xls":  "excel",
	"json": "json",
	"txt":  "text",
	"pdf":  "pdf",
	"docx": "document",
	"doc":  "document",
	"xml":  "xml",
	"html": "html",
	"md":   "markdown",
}

// FromJSON decodes a JSON request body into a RawInput.
func FromJSON(body io.Reader) (RawInput, error) {
	var in RawInput
	if err := json.NewDecoder(body).Decode(&in); err != nil {
		return RawInput{}, domain.WrapError(domain.ErrKindValidation, err, "invalid payload")
	}
	return in, nil
}

// FromMultipart decodes a multipart form, including the optional data and
// logo file parts, into a RawInput.
func FromMultipart(r *http.Request) (RawInput, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return RawInput{}, domain.WrapError(domain.ErrKindValidation, err, "invalid multipart payload")
	}
	in := RawInput{
		Title:       r.FormValue("title"),
		Prompt:      r.FormValue("prompt"),
		Description: r.FormValue("description"),

		DataSource:      r.FormValue("dataSource"),
		AggregationType: r.FormValue("aggregationType"),
		Units:           r.FormValue("units"),
		Labels:          r.FormValue("labels"),

		Purpose:     r.FormValue("purpose"),
		ChartType:   r.FormValue("chartType"),
		Orientation: r.FormValue("orientation"),
		MultiSeries: r.FormValue("multiSeries"),

		ArtDirection:      r.FormValue("artDirection"),
		VisualInfluence:   r.FormValue("visualInfluence"),
		ChartDepth:        r.FormValue("chartDepth"),
		BackgroundTexture: r.FormValue("backgroundTexture"),
		AccentShapes:      r.FormValue("accentShapes"),

		MoodContext:         r.FormValue("moodContext"),
		ToneIntensity:       r.FormValue("toneIntensity"),
		LightingTemperature: r.FormValue("lightingTemperature"),
		MotionAccent:        r.FormValue("motionAccent"),

		BrandSync:       r.FormValue("brandSync"),
		PaletteMode:     r.FormValue("paletteMode"),
		BackgroundType:  r.FormValue("backgroundType"),
		FontFamily:      r.FormValue("fontFamily"),
		LogoPlacement:   r.FormValue("logoPlacement"),
		LogoDescription: r.FormValue("logoDescription"),
		ColorPalette:    r.FormValue("colorPalette"),

		DataLabels:       r.FormValue("dataLabels"),
		LabelPlacement:   r.FormValue("labelPlacement"),
		Legends:          r.FormValue("legends"),
		Callouts:         r.FormValue("callouts"),
		CalloutThreshold: r.FormValue("calloutThreshold"),
		AxisTitles:       r.FormValue("axisTitles"),
		Gridlines:        r.FormValue("gridlines"),

		LayoutTemplate:  r.FormValue("layoutTemplate"),
		AspectRatio:     r.FormValue("aspectRatio"),
		MarginDensity:   r.FormValue("marginDensity"),
		SafeZoneOverlay: r.FormValue("safeZoneOverlay"),
		ExportPreset:    r.FormValue("exportPreset"),

		Headline: r.FormValue("headline"),
		Caption:  r.FormValue("caption"),
		Tone:     r.FormValue("tone"),
		Platform: r.FormValue("platform"),

		Quantity: r.FormValue("quantity"),
	}
	var err error
	if in.DataFile, err = readFilePart(r, "dataFile"); err != nil {
		return RawInput{}, err
	}
	if in.LogoFile, err = readFilePart(r, "logoFile"); err != nil {
		return RawInput{}, err
	}
	return in, nil
}

func readFilePart(r *http.Request, field string) (*domain.Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, domain.WrapError(domain.ErrKindValidation, err, "invalid file upload")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindValidation, err, "read file upload")
	}
	return &domain.Upload{
		Name:        path.Base(header.Filename),
		ContentType: headerContentType(header),
		Data:        data,
	}, nil
}

func headerContentType(h *multipart.FileHeader) string {
	if ct := h.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Normalize converts a RawInput into a typed GenerationSpec: defaults for
// every optional field, per-field coercions, and the file-sentinel
// derivation. Required fields are checked after defaulting. No I/O happens
// here.
func Normalize(ownerID string, in RawInput) (domain.GenerationSpec, error) {
	spec := domain.GenerationSpec{
		OwnerID:     strings.TrimSpace(ownerID),
		Title:       strings.TrimSpace(in.Title),
		Prompt:      strings.TrimSpace(in.Prompt),
		Description: strings.TrimSpace(in.Description),

		DataSource:      defaultString(in.DataSource, "text"),
		AggregationType: defaultString(in.AggregationType, "sum"),
		Units:           strings.TrimSpace(in.Units),
		Labels:          strings.TrimSpace(in.Labels),

		Purpose:     strings.TrimSpace(in.Purpose),
		ChartType:   strings.TrimSpace(in.ChartType),
		Orientation: defaultString(in.Orientation, "vertical"),
		MultiSeries: parseBool(in.MultiSeries),

		ArtDirection:      strings.TrimSpace(in.ArtDirection),
		VisualInfluence:   strings.TrimSpace(in.VisualInfluence),
		ChartDepth:        parseInt(in.ChartDepth, 0),
		BackgroundTexture: strings.TrimSpace(in.BackgroundTexture),
		AccentShapes:      parseBool(in.AccentShapes),

		MoodContext:         strings.TrimSpace(in.MoodContext),
		ToneIntensity:       parseInt(in.ToneIntensity, 50),
		LightingTemperature: parseInt(in.LightingTemperature, 50),
		MotionAccent:        defaultString(in.MotionAccent, "none"),

		BrandSync:       parseBool(in.BrandSync),
		PaletteMode:     defaultString(in.PaletteMode, "categorical"),
		BackgroundType:  defaultString(in.BackgroundType, "light"),
		FontFamily:      defaultString(in.FontFamily, "Inter"),
		LogoPlacement:   parseStringList(in.LogoPlacement),
		LogoDescription: strings.TrimSpace(in.LogoDescription),
		ColorPalette:    strings.TrimSpace(in.ColorPalette),

		DataLabels:       parseBool(in.DataLabels),
		LabelPlacement:   defaultString(in.LabelPlacement, "auto"),
		Legends:          defaultString(in.Legends, "auto"),
		Callouts:         parseBool(in.Callouts),
		CalloutThreshold: parseInt(in.CalloutThreshold, 3),
		AxisTitles:       strings.TrimSpace(in.AxisTitles),
		Gridlines:        defaultString(in.Gridlines, "light"),

		LayoutTemplate:  defaultString(in.LayoutTemplate, "auto"),
		AspectRatio:     defaultString(in.AspectRatio, "16:9"),
		MarginDensity:   parseInt(in.MarginDensity, 50),
		SafeZoneOverlay: parseBool(in.SafeZoneOverlay),
		ExportPreset:    strings.TrimSpace(in.ExportPreset),

		Headline: strings.TrimSpace(in.Headline),
		Caption:  strings.TrimSpace(in.Caption),
		Tone:     defaultString(in.Tone, "formal"),
		Platform: defaultString(in.Platform, "web"),

		Quantity: parseInt(in.Quantity, 1),

		DataFile: in.DataFile,
		LogoFile: in.LogoFile,
	}

	if spec.Quantity < 1 {
		spec.Quantity = 1
	}

	// The generic "file" source resolves to the concrete kind carried by the
	// upload's extension. Unknown extensions fall back to csv, the most
	// tolerant loader downstream.
	if spec.DataSource == "file" && spec.HasDataFile() {
		spec.DataSource = sourceKindForFile(spec.DataFile.Name)
	}

	if spec.OwnerID == "" {
		return domain.GenerationSpec{}, domain.Errorf(domain.ErrKindValidation, "owner is required")
	}
	if spec.Prompt == "" {
		return domain.GenerationSpec{}, domain.Errorf(domain.ErrKindValidation, "prompt is required")
	}
	if spec.Title == "" {
		return domain.GenerationSpec{}, domain.Errorf(domain.ErrKindValidation, "title is required")
	}
	return spec, nil
}

func sourceKindForFile(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if kind, ok := dataSourceByExt[ext]; ok {
		return kind
	}
	return "csv"
}

func defaultString(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func parseBool(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

func parseInt(v string, fallback int) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseStringList accepts either a JSON array or a comma-separated list.
func parseStringList(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if strings.HasPrefix(v, "[") {
		var list []string
		if err := json.Unmarshal([]byte(v), &list); err == nil {
			return list
		}
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
