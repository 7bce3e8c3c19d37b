// Package agent implements the maintenance copilot: intent and parameter
// inference over operator chat messages, target-machine selection, telemetry
// context assembly, the two-phase structured exchange with the LLM, and the
// persistence of resulting recommendations.
package agent

import (
	"time"

	"github.com/maintly/maintly/internal/machines"
)

// Intent is the inferred purpose of an operator message.
type Intent string

const (
	IntentRecommendation Intent = "recommendation"
	IntentExplainRisk    Intent = "explain_risk"
	IntentListTopRisky   Intent = "list_top_risky"
	IntentQA             Intent = "qa"
)

func validIntent(i Intent) bool {
	switch i {
	case IntentRecommendation, IntentExplainRisk, IntentListTopRisky, IntentQA:
		return true
	}
	return false
}

// ChatRequest is the inbound chat payload. All fields except Message are
// optional hints; numeric hints stay floating point until the policy clamps
// them so that out-of-range model output can be detected.
type ChatRequest struct {
	Message    string   `json:"message"`
	ProductID  *string  `json:"productId,omitempty"`
	WindowDays *float64 `json:"windowDays,omitempty"`
	From       *string  `json:"from,omitempty"`
	To         *string  `json:"to,omitempty"`
	TopK       *float64 `json:"topK,omitempty"`
	Save       *bool    `json:"save,omitempty"` // defaults to true
}

// SaveRequested reports whether the caller wants the recommendation persisted.
func (r *ChatRequest) SaveRequested() bool {
	return r.Save == nil || *r.Save
}

// RequestedParams are raw parameter hints before any clamping.
type RequestedParams struct {
	ProductIDs []string `json:"product_ids,omitempty"`
	TopK       *float64 `json:"top_k,omitempty"`
	WindowDays *float64 `json:"window_days,omitempty"`
	From       *string  `json:"from,omitempty"`
	To         *string  `json:"to,omitempty"`
}

// AppliedParams are the final values after policy clamping.
type AppliedParams struct {
	TopK       *int    `json:"top_k,omitempty"`
	WindowDays *int    `json:"window_days,omitempty"`
	From       *string `json:"from,omitempty"`
	To         *string `json:"to,omitempty"`
}

// Meta carries requested vs applied parameters for observability.
type Meta struct {
	Requested *RequestedParams `json:"requested,omitempty"`
	Applied   *AppliedParams   `json:"applied,omitempty"`
	Notes     string           `json:"notes,omitempty"`
}

// Inference is the analyze-phase output: intent plus parameter hints. It
// never carries a response body.
type Inference struct {
	Intent     Intent   `json:"intent"`
	ProductIDs []string `json:"product_ids,omitempty"`
	AutoPick   bool     `json:"auto_pick,omitempty"`
	TopK       *float64 `json:"top_k,omitempty"`
	WindowDays *float64 `json:"window_days,omitempty"`
	From       *string  `json:"from,omitempty"`
	To         *string  `json:"to,omitempty"`
	Meta       Meta     `json:"meta,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

func (inf *Inference) requested() *RequestedParams {
	if inf == nil || inf.Meta.Requested == nil {
		return &RequestedParams{}
	}
	return inf.Meta.Requested
}

// WindowKind tags a WindowSpec as an explicit range or a rolling window.
type WindowKind string

const (
	WindowRange   WindowKind = "range"
	WindowRolling WindowKind = "window"
)

// WindowSpec is the resolved time span over which risk and telemetry data
// is considered.
type WindowSpec struct {
	Kind       WindowKind      `json:"kind"`
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
	WindowDays int             `json:"window_days,omitempty"` // rolling only
	Requested  RequestedParams `json:"requested"`
	Applied    AppliedParams   `json:"applied"`
}

// SelectionMode tags how the target machine(s) were chosen.
type SelectionMode string

const (
	SelectionNone     SelectionMode = "none"
	SelectionExplicit SelectionMode = "explicit"
	SelectionAuto     SelectionMode = "auto"
)

// RiskCandidate is one machine in a top-risk ranking.
type RiskCandidate struct {
	ProductID   string    `json:"product_id"`
	Type        string    `json:"type"`
	RiskScore   float64   `json:"risk_score"`
	RiskLevel   string    `json:"risk_level"`
	PredictedAt time.Time `json:"predicted_at"`
}

// Selection is the resolved target decision for a request.
type Selection struct {
	Mode            SelectionMode   `json:"mode"`
	TargetProductID *string         `json:"target_product_id"`
	RequestedTopK   int             `json:"requested_top_k"`
	AppliedTopK     int             `json:"applied_top_k"`
	Window          WindowSpec      `json:"window"`
	TopCandidates   []RiskCandidate `json:"top_candidates,omitempty"` // auto only
}

// MetricStats aggregates one telemetry channel.
type MetricStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SensorSummary condenses a reading window for the respond prompt.
type SensorSummary struct {
	CoverageHours float64                  `json:"coverage_hours"`
	Count         int                      `json:"count"`
	Stats         map[string]MetricStats   `json:"stats"`
	DeltaTempK    *float64                 `json:"delta_temp_k,omitempty"`
	RecentSamples []machines.SensorReading `json:"recent_samples"`
}

// MachineContext is the point-in-time read bundle for a target machine.
// It is assembled per request and never persisted.
type MachineContext struct {
	Machine          machines.Machine         `json:"machine"`
	LatestPrediction *machines.Prediction     `json:"latest_prediction,omitempty"`
	RecentAnomalies  []machines.Anomaly       `json:"recent_anomalies"`
	Readings         []machines.SensorReading `json:"-"` // newest first, summarized into Sensors
	Sensors          SensorSummary            `json:"sensors"`
}

// Recommendation is the LLM-produced maintenance recommendation.
type Recommendation struct {
	ActionText  string   `json:"action_text"`
	Reason      string   `json:"reason"`
	HorizonDays *float64 `json:"horizon_days"`
	Confidence  float64  `json:"confidence"`
	FailureType string   `json:"failure_type"`
}

// ListItem is one entry of a top-risk list answer.
type ListItem struct {
	ProductID string  `json:"product_id"`
	RiskScore float64 `json:"risk_score"`
	RiskLevel string  `json:"risk_level"`
	Summary   string  `json:"summary"`
}

// ResponseResult is the respond-phase output. Exactly one of the four
// bodies is populated, selected by Intent.
type ResponseResult struct {
	Intent         Intent          `json:"intent"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Explanation    *string         `json:"explanation,omitempty"`
	List           []ListItem      `json:"list,omitempty"`
	QA             *string         `json:"qa,omitempty"`
	Meta           Meta            `json:"meta,omitempty"`
	Errors         []string        `json:"errors,omitempty"`
}

// ChatResult is the full chat response returned to the caller.
type ChatResult struct {
	Intent          Intent          `json:"intent"`
	TargetProductID *string         `json:"target_product_id"`
	Selection       SelectionMode   `json:"selection"`
	Window          WindowSpec      `json:"window"`
	TopCandidates   []RiskCandidate `json:"top_candidates"`
	Recommendation  *Recommendation `json:"recommendation,omitempty"`
	Explanation     *string         `json:"explanation,omitempty"`
	List            []ListItem      `json:"list,omitempty"`
	QA              *string         `json:"qa,omitempty"`
	Meta            Meta            `json:"meta"`
	Errors          []string        `json:"errors"`
	Saved           bool            `json:"saved"`
	Updated         bool            `json:"updated"`
}
