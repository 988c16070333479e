package prompt

import (
	"fmt"
	"strings"

	"studio/internal/domain"
)

// exportPresetRatios maps an export preset to the aspect ratio it requires.
var exportPresetRatios = map[string]string{
	"social-square": "1:1",
	"social-post":   "4:5",
	"story":         "9:16",
	"widescreen":    "16:9",
	"presentation":  "16:9",
}

type smartRule struct {
	name  string
	apply func(*domain.GenerationSpec) (string, bool)
}

// smartRules are the conditional overrides applied before compilation. Each
// rule may rewrite a field or suppress another and reports a human-readable
// note so the caller can explain what changed. Order is fixed.
var smartRules = []smartRule{
	{
		name: "export preset forces aspect ratio",
		apply: func(s *domain.GenerationSpec) (string, bool) {
			ratio, ok := exportPresetRatios[strings.ToLower(s.ExportPreset)]
			if !ok || s.AspectRatio == ratio {
				return "", false
			}
			s.AspectRatio = ratio
			return fmt.Sprintf("export preset %q requires aspect ratio %s", s.ExportPreset, ratio), true
		},
	},
	{
		name: "circular charts drop gridlines",
		apply: func(s *domain.GenerationSpec) (string, bool) {
			switch strings.ToLower(s.ChartType) {
			case "pie", "donut":
			default:
				return "", false
			}
			if !domain.FieldSet(s.Gridlines) || s.Gridlines == "none" {
				return "", false
			}
			s.Gridlines = "none"
			return fmt.Sprintf("gridlines disabled: not applicable to %s charts", strings.ToLower(s.ChartType)), true
		},
	},
	{
		name: "3d art direction raises depth",
		apply: func(s *domain.GenerationSpec) (string, bool) {
			if !strings.EqualFold(s.ArtDirection, "3D Data Art") || s.ChartDepth >= 60 {
				return "", false
			}
			s.ChartDepth = 60
			return "chart depth raised to 60 for 3D Data Art direction", true
		},
	},
	{
		name: "story ratio targets story platform",
		apply: func(s *domain.GenerationSpec) (string, bool) {
			if s.AspectRatio != "9:16" || s.Platform == "story" {
				return "", false
			}
			s.Platform = "story"
			return "platform switched to story for 9:16 output", true
		},
	},
}

// ApplySmartRules returns a copy of the spec with the conditional overrides
// applied, plus one note per rule that fired. The input spec is not mutated.
func ApplySmartRules(spec domain.GenerationSpec) (domain.GenerationSpec, []string) {
	out := spec
	var notes []string
	for _, rule := range smartRules {
		if note, fired := rule.apply(&out); fired {
			notes = append(notes, note)
		}
	}
	return out, notes
}
