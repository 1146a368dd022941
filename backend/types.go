package backend

// Severity levels assigned by the inference backend.
const (
	SeverityNone   = "none"
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Mitigation modes returned by /v1/mitigate.
const (
	ModeRewrite  = "rewrite"
	ModeAdvisory = "advisory"
	ModeNone     = "none"
)

// Implicit/explicit style flags carried in severity_meta. StyleUnknown
// marks a value outside the wire encoding (non-numeric, or a fractional
// number).
const (
	StyleNeutral  = 0
	StyleExplicit = 1
	StyleImplicit = 2
	StyleUnknown  = -1
)

// HealthStatus is the response of GET /health.
type HealthStatus struct {
	Device string `json:"device"`
}

// InferResult is one per-input record from /v1/infer. All fields are
// optional on the wire; missing keys decode to zero values.
type InferResult struct {
	Text          string                 `json:"text"`
	Scores        map[string]float64     `json:"scores"`
	ScoresOrdered map[string]float64     `json:"scores_ordered"`
	TopLabel      string                 `json:"top_label"`
	Severity      string                 `json:"severity"`
	Meta          map[string]interface{} `json:"meta"`
}

// InferResponse is the full /v1/infer response.
type InferResponse struct {
	Device    string        `json:"device"`
	TypeOrder []string      `json:"type_order"`
	Results   []InferResult `json:"results"`
}

// MitigateResult is the /v1/mitigate response. Rewritten is null on the
// wire when the backend chose not to rewrite; it decodes to "".
type MitigateResult struct {
	Mode      string                 `json:"mode"`
	Severity  string                 `json:"severity"`
	Advisory  string                 `json:"advisory"`
	Rewritten string                 `json:"rewritten"`
	Meta      map[string]interface{} `json:"meta"`
}

// SeverityMeta returns the severity_meta mapping from the result's meta,
// or an empty map when absent or of an unexpected shape.
func (r InferResult) SeverityMeta() map[string]interface{} {
	if r.Meta == nil {
		return map[string]interface{}{}
	}
	if sm, ok := r.Meta["severity_meta"].(map[string]interface{}); ok {
		return sm
	}
	return map[string]interface{}{}
}

// EffectiveTopLabel prefers the severity_meta top label so the display
// reflects post-hoc lexicon overrides, falling back to the raw top label.
func (r InferResult) EffectiveTopLabel() string {
	if label, ok := r.SeverityMeta()["top_label"].(string); ok && label != "" {
		return label
	}
	return r.TopLabel
}

// StyleFlag returns the implicit_explicit flag from severity_meta. An
// absent flag is neutral; a present value that is not a whole number
// (JSON numbers decode as float64) is StyleUnknown.
func (r InferResult) StyleFlag() int {
	raw, ok := r.SeverityMeta()["implicit_explicit"]
	if !ok {
		return StyleNeutral
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return StyleUnknown
		}
		return int(v)
	case int:
		return v
	default:
		return StyleUnknown
	}
}

// MetaTopLabel returns the top_label from a mitigation result's meta,
// or "" when absent.
func (m MitigateResult) MetaTopLabel() string {
	if m.Meta == nil {
		return ""
	}
	if label, ok := m.Meta["top_label"].(string); ok {
		return label
	}
	return ""
}
