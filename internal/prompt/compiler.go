// Package prompt deterministically renders provider prompts from a
// GenerationSpec. Compilation is pure: the same spec always yields the same
// string, and fields the caller never set stay out of the output entirely.
package prompt

import (
	"fmt"
	"strings"

	"studio/internal/domain"
)

// CodePrompt renders the first-stage instruction that asks a code-generation
// provider for chart-plotting code. It carries the data question and the
// structural preferences; visual styling belongs to EnhancementPrompt.
func CodePrompt(spec domain.GenerationSpec) string {
	s, _ := ApplySmartRules(spec)

	var lines []string
	lines = append(lines,
		"You are a data visualization expert. Write Python code that builds one clear, accurate chart with matplotlib.",
		"Do not call plt.savefig() or plt.show(); return the complete working code only.",
		"")

	if s.HasDataFile() {
		lines = append(lines,
			"Read the uploaded data file from /mnt/data and analyze its structure before plotting.")
	} else {
		lines = append(lines, "Data to visualize:", s.Prompt)
	}
	lines = append(lines, "", "Question to answer: "+s.Prompt)

	var structure []string
	if domain.FieldSet(s.ChartType) {
		structure = append(structure, "chart type: "+s.ChartType)
	}
	if domain.FieldSet(s.Purpose) {
		structure = append(structure, "purpose: "+s.Purpose)
	}
	if domain.FieldSet(s.Orientation) && s.Orientation != "vertical" {
		structure = append(structure, "orientation: "+s.Orientation)
	}
	if s.MultiSeries {
		structure = append(structure, "plot multiple series")
	}
	if domain.FieldSet(s.AggregationType) && s.AggregationType != "sum" {
		structure = append(structure, "aggregate values by "+s.AggregationType)
	}
	if domain.FieldSet(s.Units) {
		structure = append(structure, "value units: "+s.Units)
	}
	if domain.FieldSet(s.Labels) {
		structure = append(structure, "series labels: "+s.Labels)
	}
	if len(structure) > 0 {
		lines = append(lines, "", "Chart structure: "+strings.Join(structure, "; ")+".")
	}

	var annotations []string
	if s.DataLabels {
		annotations = append(annotations, "show data labels")
	}
	if domain.FieldSet(s.Legends) {
		annotations = append(annotations, s.Legends+" legend")
	}
	if domain.FieldSet(s.Gridlines) && s.Gridlines != "light" {
		annotations = append(annotations, s.Gridlines+" gridlines")
	}
	if s.Callouts {
		annotations = append(annotations, fmt.Sprintf("call out the top %d values", s.CalloutThreshold))
	}
	if domain.FieldSet(s.AxisTitles) {
		annotations = append(annotations, "axis titles: "+s.AxisTitles)
	}
	if len(annotations) > 0 {
		lines = append(lines, "Annotations: "+strings.Join(annotations, "; ")+".")
	}

	if domain.FieldSet(s.Headline) {
		lines = append(lines, "Use this headline as the chart title: "+s.Headline)
	}
	if domain.FieldSet(s.Caption) {
		lines = append(lines, "Add a caption below the chart: "+s.Caption)
	}

	return strings.Join(lines, "\n")
}

// EnhancementPrompt renders the second-stage instruction that restyles a raw
// chart image. Data accuracy constraints are always appended so the enhancer
// never rewrites values.
func EnhancementPrompt(spec domain.GenerationSpec) string {
	s, _ := ApplySmartRules(spec)

	var lines []string
	lines = append(lines, "Transform this data visualization into a polished, professional chart image.", "")
	lines = append(lines, "Context: "+s.Prompt)

	var style []string
	if domain.FieldSet(s.ArtDirection) {
		style = append(style, "art direction: "+s.ArtDirection)
	}
	if domain.FieldSet(s.VisualInfluence) {
		style = append(style, "visual influence: "+s.VisualInfluence)
	}
	if s.ChartDepth > 30 {
		style = append(style, depthClause(s.ChartDepth))
	}
	if domain.FieldSet(s.BackgroundTexture) {
		style = append(style, s.BackgroundTexture+" background texture")
	}
	if s.AccentShapes {
		style = append(style, "decorative accent shapes that complement the data")
	}
	if len(style) > 0 {
		lines = append(lines, "Visual style: "+strings.Join(style, "; ")+".")
	}

	var mood []string
	if domain.FieldSet(s.MoodContext) {
		mood = append(mood, "mood: "+s.MoodContext)
	}
	if s.ToneIntensity != 50 {
		mood = append(mood, "tone intensity: "+intensityClause(s.ToneIntensity))
	}
	if s.LightingTemperature != 50 {
		mood = append(mood, "lighting: "+lightingClause(s.LightingTemperature))
	}
	if domain.FieldSet(s.MotionAccent) {
		mood = append(mood, s.MotionAccent+" motion accents")
	}
	if len(mood) > 0 {
		lines = append(lines, "Mood: "+strings.Join(mood, "; ")+".")
	}

	var branding []string
	if s.BrandSync {
		branding = append(branding, "apply cohesive brand styling throughout")
	}
	if domain.FieldSet(s.PaletteMode) && s.PaletteMode != "categorical" {
		branding = append(branding, s.PaletteMode+" color progression")
	}
	if domain.FieldSet(s.ColorPalette) {
		branding = append(branding, "color palette: "+s.ColorPalette)
	}
	if domain.FieldSet(s.BackgroundType) && s.BackgroundType != "light" {
		branding = append(branding, s.BackgroundType+" background")
	}
	if domain.FieldSet(s.FontFamily) && s.FontFamily != "Inter" {
		branding = append(branding, "typography: "+s.FontFamily)
	}
	if len(s.LogoPlacement) > 0 {
		branding = append(branding, "logo placement: "+strings.Join(s.LogoPlacement, ", "))
	}
	if domain.FieldSet(s.LogoDescription) {
		branding = append(branding, "logo style: "+s.LogoDescription)
	}
	if len(branding) > 0 {
		lines = append(lines, "Branding: "+strings.Join(branding, "; ")+".")
	}

	var layout []string
	if domain.FieldSet(s.LayoutTemplate) {
		layout = append(layout, s.LayoutTemplate+" composition")
	}
	if s.MarginDensity != 50 {
		layout = append(layout, marginClause(s.MarginDensity)+" margins")
	}
	if domain.FieldSet(s.ExportPreset) {
		layout = append(layout, "optimized for the "+s.ExportPreset+" export preset")
	}
	if len(layout) > 0 {
		lines = append(lines, "Layout: "+strings.Join(layout, "; ")+".")
	}

	var audience []string
	if domain.FieldSet(s.Platform) && s.Platform != "web" {
		audience = append(audience, "target platform: "+s.Platform)
	}
	if domain.FieldSet(s.Tone) && s.Tone != "formal" {
		audience = append(audience, s.Tone+" presentation tone")
	}
	if len(audience) > 0 {
		lines = append(lines, "Audience: "+strings.Join(audience, "; ")+".")
	}

	lines = append(lines, "",
		"Preserve all data accuracy: do not change numbers, labels, or values.",
		"Keep every piece of text legible and the chart structure intact.")

	return strings.Join(lines, "\n")
}

func depthClause(depth int) string {
	switch {
	case depth < 50:
		return "subtle 3D depth"
	case depth < 75:
		return "moderate 3D depth"
	default:
		return "pronounced 3D depth and lighting"
	}
}

func intensityClause(v int) string {
	switch {
	case v < 30:
		return "subtle"
	case v < 70:
		return "balanced"
	default:
		return "bold and dramatic"
	}
}

func lightingClause(v int) string {
	switch {
	case v < 40:
		return "cool, blue-tinted"
	case v < 60:
		return "neutral"
	default:
		return "warm, golden"
	}
}

func marginClause(v int) string {
	switch {
	case v < 30:
		return "tight"
	case v < 70:
		return "balanced"
	default:
		return "spacious"
	}
}
