package domain

import "strings"

// Upload carries a user-supplied file through the pipeline in memory. Files
// are never written anywhere before the storage phase.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// GenerationSpec is the normalized, immutable form of one generation request.
// It is constructed once by the request normalizer and never mutated; smart
// rules in the prompt compiler operate on a copy.
type GenerationSpec struct {
	OwnerID     string
	Title       string
	Prompt      string
	Description string

	// Data source & content
	DataSource      string
	AggregationType string
	Units           string
	Labels          string

	// Purpose & chart configuration
	Purpose     string
	ChartType   string
	Orientation string
	MultiSeries bool

	// Visual style
	ArtDirection      string
	VisualInfluence   string
	ChartDepth        int
	BackgroundTexture string
	AccentShapes      bool

	// Mood & atmosphere
	MoodContext         string
	ToneIntensity       int
	LightingTemperature int
	MotionAccent        string

	// Branding
	BrandSync       bool
	PaletteMode     string
	BackgroundType  string
	FontFamily      string
	LogoPlacement   []string
	LogoDescription string
	ColorPalette    string

	// Annotations & labels
	DataLabels       bool
	LabelPlacement   string
	Legends          string
	Callouts         bool
	CalloutThreshold int
	AxisTitles       string
	Gridlines        string

	// Layout
	LayoutTemplate  string
	AspectRatio     string
	MarginDensity   int
	SafeZoneOverlay bool
	ExportPreset    string

	// Narrative
	Headline string
	Caption  string
	Tone     string
	Platform string

	Quantity int

	DataFile *Upload
	LogoFile *Upload
}

// HasDataFile reports whether the request carried an uploaded data file.
func (s GenerationSpec) HasDataFile() bool {
	return s.DataFile != nil && len(s.DataFile.Data) > 0
}

// HasLogoFile reports whether the request carried an uploaded logo image.
func (s GenerationSpec) HasLogoFile() bool {
	return s.LogoFile != nil && len(s.LogoFile.Data) > 0
}

// FieldSet reports whether a string field was explicitly supplied by the
// caller. Placeholder values emitted by selection widgets count as unset so
// they never leak into a compiled prompt.
func FieldSet(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none", "auto", "default", "select", "choose", "placeholder":
		return false
	}
	return true
}
