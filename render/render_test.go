package render

import (
	"testing"

	"github.com/sojenai/jenai-dashboard/backend"
)

// --- Severity color tests ---

func TestSeverityColor(t *testing.T) {
	testCases := []struct {
		severity string
		want     string
	}{
		{severity: "high", want: ColorHigh},
		{severity: "medium", want: ColorMedium},
		{severity: "low", want: ColorLow},
		{severity: "none", want: ColorNeutral},
		{severity: "", want: ColorNeutral},
		{severity: "catastrophic", want: ColorNeutral},
	}

	for _, tc := range testCases {
		t.Run("severity "+tc.severity, func(t *testing.T) {
			if got := SeverityColor(tc.severity); got != tc.want {
				t.Errorf("SeverityColor(%q) = %q, want %q", tc.severity, got, tc.want)
			}
		})
	}
}

// --- Bias style tests ---

func TestBiasStyleLabel(t *testing.T) {
	testCases := []struct {
		flag int
		want string
	}{
		{flag: 0, want: "neutral / none"},
		{flag: 1, want: "explicit"},
		{flag: 2, want: "implicit"},
		{flag: 3, want: "unknown"},
		{flag: -1, want: "unknown"},
	}

	for _, tc := range testCases {
		if got := BiasStyleLabel(tc.flag); got != tc.want {
			t.Errorf("BiasStyleLabel(%d) = %q, want %q", tc.flag, got, tc.want)
		}
	}
}

// --- Result view tests ---

func TestResult_RowsFollowTypeOrder(t *testing.T) {
	r := backend.InferResult{
		Text:          "Women are bad drivers.",
		Scores:        map[string]float64{"sexist": 0.91},
		ScoresOrdered: map[string]float64{"sexist": 0.91},
		TopLabel:      "sexist",
		Severity:      "high",
	}
	typeOrder := []string{"political", "racial", "sexist", "bullying"}

	view := Result("r1", 0, r, typeOrder)

	if len(view.Rows) != len(typeOrder) {
		t.Fatalf("expected %d rows, got %d", len(typeOrder), len(view.Rows))
	}
	for i, row := range view.Rows {
		if row.Category != typeOrder[i] {
			t.Errorf("row %d: expected category %q, got %q", i, typeOrder[i], row.Category)
		}
	}
	if view.Rows[0].Score != 0.0 {
		t.Errorf("expected missing category to default to 0.0, got %v", view.Rows[0].Score)
	}
	if view.Rows[2].Score != 0.91 {
		t.Errorf("expected sexist score 0.91, got %v", view.Rows[2].Score)
	}
}

func TestResult_PrefersOrderedScores(t *testing.T) {
	// When scores_ordered and scores disagree, scores_ordered wins.
	r := backend.InferResult{
		Scores:        map[string]float64{"sexist": 0.10},
		ScoresOrdered: map[string]float64{"sexist": 0.91},
	}

	view := Result("r1", 0, r, []string{"sexist"})
	if view.Rows[0].Score != 0.91 {
		t.Errorf("expected ordered score 0.91 to win, got %v", view.Rows[0].Score)
	}
}

func TestResult_FallsBackToRawScores(t *testing.T) {
	r := backend.InferResult{
		Scores: map[string]float64{"sexist": 0.42},
	}

	view := Result("r1", 0, r, []string{"sexist"})
	if view.Rows[0].Score != 0.42 {
		t.Errorf("expected raw score 0.42, got %v", view.Rows[0].Score)
	}
}

func TestResult_DerivesOrderWhenTypeOrderEmpty(t *testing.T) {
	r := backend.InferResult{
		Scores: map[string]float64{"racial": 0.1, "ageism": 0.2, "sexist": 0.3},
	}

	view := Result("r1", 0, r, nil)

	if len(view.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(view.Rows))
	}
	// Fallback ordering is sorted for stability.
	want := []string{"ageism", "racial", "sexist"}
	for i, row := range view.Rows {
		if row.Category != want[i] {
			t.Errorf("row %d: expected %q, got %q", i, want[i], row.Category)
		}
	}
}

func TestResult_PrefersSeverityMetaTopLabel(t *testing.T) {
	r := backend.InferResult{
		TopLabel: "sexist",
		Severity: "medium",
		Meta: map[string]interface{}{
			"severity_meta": map[string]interface{}{
				"top_label":         "bullying",
				"implicit_explicit": float64(2),
			},
		},
	}

	view := Result("r1", 0, r, nil)
	if view.TopLabel != "bullying" {
		t.Errorf("expected lexicon-overridden top label 'bullying', got %q", view.TopLabel)
	}
	if view.BiasStyle != "implicit" {
		t.Errorf("expected bias style 'implicit', got %q", view.BiasStyle)
	}
}

func TestResult_MalformedStyleFlagIsUnknown(t *testing.T) {
	testCases := []struct {
		name string
		flag interface{}
		want string
	}{
		{name: "string flag", flag: "strongly", want: "unknown"},
		{name: "fractional flag", flag: 1.5, want: "unknown"},
		{name: "null flag", flag: nil, want: "unknown"},
		{name: "out-of-range flag", flag: float64(7), want: "unknown"},
		{name: "whole float flag", flag: float64(1), want: "explicit"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := backend.InferResult{
				Meta: map[string]interface{}{
					"severity_meta": map[string]interface{}{
						"implicit_explicit": tc.flag,
					},
				},
			}
			view := Result("r1", 0, r, nil)
			if view.BiasStyle != tc.want {
				t.Errorf("flag %v rendered as %q, want %q", tc.flag, view.BiasStyle, tc.want)
			}
		})
	}
}

func TestResult_DefaultsForEmptyResult(t *testing.T) {
	view := Result("r1", 0, backend.InferResult{}, nil)

	if view.Severity != "none" {
		t.Errorf("expected severity 'none', got %q", view.Severity)
	}
	if view.SeverityColor != ColorNeutral {
		t.Errorf("expected neutral color, got %q", view.SeverityColor)
	}
	if view.BiasStyle != "neutral / none" {
		t.Errorf("expected neutral bias style, got %q", view.BiasStyle)
	}
	if len(view.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(view.Rows))
	}
}

// --- Mitigation view tests ---

func TestMitigation_RewriteMode(t *testing.T) {
	m := backend.MitigateResult{
		Mode:      "rewrite",
		Severity:  "medium",
		Advisory:  "Consider a softer phrasing.",
		Rewritten: "I had a frustrating experience.",
		Meta:      map[string]interface{}{"top_label": "bullying"},
	}

	view := Mitigation(m, "high", "sexist")

	if view.SeverityLabel != "Medium" {
		t.Errorf("expected label 'Medium', got %q", view.SeverityLabel)
	}
	if view.SeverityColor != ColorMedium {
		t.Errorf("expected medium color, got %q", view.SeverityColor)
	}
	if view.PrimaryCategory != "bullying" {
		t.Errorf("expected primary category 'bullying', got %q", view.PrimaryCategory)
	}
	if !view.VoiceAvailable {
		t.Error("expected voice to be available")
	}
	if view.ModeNote != ModeNote("rewrite") {
		t.Errorf("unexpected mode note: %q", view.ModeNote)
	}
}

func TestMitigation_Fallbacks(t *testing.T) {
	view := Mitigation(backend.MitigateResult{Mode: "advisory", Advisory: "x"}, "high", "sexist")

	if view.Severity != "high" {
		t.Errorf("expected fallback severity 'high', got %q", view.Severity)
	}
	if view.PrimaryCategory != "sexist" {
		t.Errorf("expected fallback category 'sexist', got %q", view.PrimaryCategory)
	}
}

func TestMitigation_NoneMode(t *testing.T) {
	view := Mitigation(backend.MitigateResult{Mode: "none", Severity: "low"}, "", "")

	if view.Rewritten != "" {
		t.Errorf("expected no rewritten text, got %q", view.Rewritten)
	}
	if view.VoiceAvailable {
		t.Error("expected voice unavailable when both texts are empty")
	}
	if view.ModeNote != ModeNote("none") {
		t.Errorf("unexpected mode note: %q", view.ModeNote)
	}
}

func TestMitigation_MissingModeDefaultsToRewrite(t *testing.T) {
	view := Mitigation(backend.MitigateResult{Rewritten: "A calmer phrasing."}, "medium", "sexist")

	if view.Mode != "rewrite" {
		t.Errorf("expected mode 'rewrite', got %q", view.Mode)
	}
	if view.ModeNote != ModeNote("rewrite") {
		t.Errorf("expected rewrite-mode note, got %q", view.ModeNote)
	}
}

func TestMitigation_UnknownModeUsesDefaultNote(t *testing.T) {
	view := Mitigation(backend.MitigateResult{Mode: "escalate"}, "", "")
	if view.ModeNote != ModeNote("none") {
		t.Errorf("expected default note for unknown mode, got %q", view.ModeNote)
	}
	if view.SeverityColor != ColorNeutral {
		t.Errorf("expected neutral color, got %q", view.SeverityColor)
	}
}
