// Package render builds display views from backend responses. Everything
// here is a pure function: the same result and category ordering always
// produce the same view.
package render

import (
	"sort"
	"strings"

	"github.com/sojenai/jenai-dashboard/backend"
)

// Severity badge colors.
const (
	ColorHigh    = "#ff4d4f"
	ColorMedium  = "#faad14"
	ColorLow     = "#52c41a"
	ColorNeutral = "#d9d9d9"
)

// Device badge colors for the sidebar and performance indicator.
const (
	ColorAccelerated = "#52c41a"
	ColorStandard    = "#faad14"
)

// ScoreRow is one row of the per-category score table.
type ScoreRow struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// ResultView is the display representation of one inference result.
type ResultView struct {
	ID            string                 `json:"id"`
	Index         int                    `json:"index"`
	Text          string                 `json:"text"`
	TopLabel      string                 `json:"top_label"`
	Severity      string                 `json:"severity"`
	SeverityLabel string                 `json:"severity_label"`
	SeverityColor string                 `json:"severity_color"`
	BiasStyle     string                 `json:"bias_style"`
	Rows          []ScoreRow             `json:"rows"`
	Meta          map[string]interface{} `json:"meta"`
}

// MitigationView is the display representation of a mitigation response.
type MitigationView struct {
	Mode            string `json:"mode"`
	Severity        string `json:"severity"`
	SeverityLabel   string `json:"severity_label"`
	SeverityColor   string `json:"severity_color"`
	PrimaryCategory string `json:"primary_category"`
	Advisory        string `json:"advisory"`
	Rewritten       string `json:"rewritten"`
	ModeNote        string `json:"mode_note"`
	VoiceAvailable  bool   `json:"voice_available"`
}

// SeverityColor maps a severity level to its badge color. Values outside
// the known set get the neutral color, never an error.
func SeverityColor(severity string) string {
	switch severity {
	case backend.SeverityHigh:
		return ColorHigh
	case backend.SeverityMedium:
		return ColorMedium
	case backend.SeverityLow:
		return ColorLow
	default:
		return ColorNeutral
	}
}

// BiasStyleLabel maps the implicit/explicit flag to its display label.
func BiasStyleLabel(flag int) string {
	switch flag {
	case backend.StyleNeutral:
		return "neutral / none"
	case backend.StyleExplicit:
		return "explicit"
	case backend.StyleImplicit:
		return "implicit"
	default:
		return "unknown"
	}
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// CategoryOrder returns the canonical category ordering for a result. When
// the backend supplied no type_order, the ordering is derived from the
// result's raw score keys (sorted so the fallback is at least stable).
func CategoryOrder(r backend.InferResult, typeOrder []string) []string {
	if len(typeOrder) > 0 {
		return typeOrder
	}
	keys := make([]string, 0, len(r.Scores))
	for k := range r.Scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// scoreFor looks up a category's score, preferring scores_ordered over
// scores when both carry the category, and defaulting to 0.0.
func scoreFor(r backend.InferResult, category string) float64 {
	if v, ok := r.ScoresOrdered[category]; ok {
		return v
	}
	if v, ok := r.Scores[category]; ok {
		return v
	}
	return 0.0
}

// Result builds the view for one inference result. The score table always
// has exactly one row per category in the effective ordering.
func Result(id string, index int, r backend.InferResult, typeOrder []string) ResultView {
	order := CategoryOrder(r, typeOrder)

	rows := make([]ScoreRow, 0, len(order))
	for _, cat := range order {
		rows = append(rows, ScoreRow{Category: cat, Score: scoreFor(r, cat)})
	}

	severity := r.Severity
	if severity == "" {
		severity = backend.SeverityNone
	}

	return ResultView{
		ID:            id,
		Index:         index,
		Text:          r.Text,
		TopLabel:      r.EffectiveTopLabel(),
		Severity:      severity,
		SeverityLabel: Capitalize(severity),
		SeverityColor: SeverityColor(severity),
		BiasStyle:     BiasStyleLabel(r.StyleFlag()),
		Rows:          rows,
		Meta:          r.Meta,
	}
}

// Per-mode explanatory notes shown under a mitigation response.
const (
	noteAdvisory = "JenAI-Moderator is in advisory mode for this message due to its " +
		"assessed severity toward a protected group. The response explains why the " +
		"content may be harmful and suggests a different way to express underlying concerns."
	noteRewrite = "JenAI-Moderator is in rewrite mode, providing a clearer and less " +
		"harmful version of the message while preserving intent."
	noteNone = "JenAI-Moderator has not proposed a rewrite at this severity level. " +
		"The model signal is too low to justify an automatic bias mitigation rewrite."
)

// ModeNote returns the explanatory note for a mitigation mode. Unknown
// modes fall back to the no-rewrite note.
func ModeNote(mode string) string {
	switch mode {
	case backend.ModeAdvisory:
		return noteAdvisory
	case backend.ModeRewrite:
		return noteRewrite
	default:
		return noteNone
	}
}

// Mitigation builds the view for a mitigation response. fallbackSeverity
// and fallbackLabel come from the originating inference result and are
// used when the mitigation response omits its own.
func Mitigation(m backend.MitigateResult, fallbackSeverity, fallbackLabel string) MitigationView {
	severity := m.Severity
	if severity == "" {
		severity = fallbackSeverity
	}
	if severity == "" {
		severity = backend.SeverityNone
	}

	primary := m.MetaTopLabel()
	if primary == "" {
		primary = fallbackLabel
	}

	// A response without a mode is treated as a rewrite.
	mode := m.Mode
	if mode == "" {
		mode = backend.ModeRewrite
	}

	return MitigationView{
		Mode:            mode,
		Severity:        severity,
		SeverityLabel:   Capitalize(severity),
		SeverityColor:   SeverityColor(severity),
		PrimaryCategory: primary,
		Advisory:        m.Advisory,
		Rewritten:       m.Rewritten,
		ModeNote:        ModeNote(mode),
		VoiceAvailable:  m.Rewritten != "" || m.Advisory != "",
	}
}
