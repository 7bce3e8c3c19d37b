package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

const analyzeSystemPrompt = `You are Maintly Agent, an industrial reliability assistant.
This is the ANALYZE phase: classify the operator's request and extract parameters.
Do NOT answer the request yet and do NOT invent machine data.

Respond with a single JSON object and nothing else:
{
  "intent": "recommendation" | "explain_risk" | "list_top_risky" | "qa",
  "product_ids": ["<machine product ids named by the operator>"] or null,
  "auto_pick": true when the operator wants the system to choose machines by risk,
  "top_k": <number of ranked machines requested> or null,
  "window_days": <rolling window length in days> or null,
  "from": "<ISO date>" or null,
  "to": "<ISO date>" or null,
  "meta": {"requested": {"product_ids": [...], "top_k": ..., "window_days": ..., "from": ..., "to": ...}, "notes": "<short reasoning note>"},
  "errors": []
}

Rules:
- "recommendation": the operator wants a maintenance action.
- "explain_risk": the operator wants to understand why a machine is at risk.
- "list_top_risky": the operator wants a ranking of risky machines.
- "qa": anything else (general questions, smalltalk, system questions).
- Phrases like "this week" mean window_days=7, "today" means window_days=1.
- Leave every parameter you cannot ground in the message as null. Never guess.`

const respondSystemPrompt = `You are Maintly Agent, an industrial reliability assistant.
This is the RESPOND phase. Use only the supplied telemetry, predictions and
anomalies. Be concrete and cite metrics in your reasoning. Avoid chain-of-thought
explanations or guessing unknown data. If context is absent, say what is missing
instead of inventing facts.

Respond with a single JSON object and nothing else:
{
  "intent": "<echo the given intent>",
  "recommendation": {"action_text": "...", "reason": "...", "horizon_days": <days or null>, "confidence": <0..1>, "failure_type": "..."} or null,
  "explanation": "..." or null,
  "list": [{"product_id": "...", "risk_score": <0..1>, "risk_level": "...", "summary": "..."}] or null,
  "qa": "..." or null,
  "meta": {"notes": "..."},
  "errors": []
}

Populate exactly the one body matching the intent and leave the other three null.
For recommendations, infer failure_type as a short canonical label under 4 words
(for example "Tool Wear Failure" or "Overheat").`

// buildAnalyzePrompt assembles the analyze-phase user message.
func buildAnalyzePrompt(message string, req *ChatRequest, pol Policy) string {
	hints := map[string]any{}
	if req.ProductID != nil {
		hints["productId"] = *req.ProductID
	}
	if req.TopK != nil {
		hints["topK"] = *req.TopK
	}
	if req.WindowDays != nil {
		hints["windowDays"] = *req.WindowDays
	}
	if req.From != nil {
		hints["from"] = *req.From
	}
	if req.To != nil {
		hints["to"] = *req.To
	}

	blocks := []string{
		fmt.Sprintf("Policy bounds: top_k <= %d (default %d), window_days <= %d (default %d).",
			pol.MaxTopK, pol.DefaultTopK, pol.MaxWindowDays, pol.DefaultWindowDays),
	}
	if len(hints) > 0 {
		blocks = append(blocks, "Structured payload hints: "+mustJSON(hints))
	}
	blocks = append(blocks, fmt.Sprintf("Operator request: %q", message))
	return strings.Join(blocks, "\n\n")
}

// buildRespondPrompt assembles the respond-phase user message from the
// analyze output, the resolved selection and the optional machine context.
func buildRespondPrompt(message string, inf *Inference, sel Selection, mctx *MachineContext, pol Policy) string {
	blocks := []string{
		"Intent: " + string(inf.Intent),
		"Selection: " + mustJSON(sel),
	}

	if mctx != nil {
		blocks = append(blocks, "Machine context:\n"+formatMachineContext(mctx))
	} else {
		blocks = append(blocks, "Machine context: none (no target machine for this request)")
	}

	blocks = append(blocks,
		fmt.Sprintf("Policy bounds: top_k <= %d, window_days <= %d.", pol.MaxTopK, pol.MaxWindowDays),
		fmt.Sprintf("Operator request: %q", message),
	)
	return strings.Join(blocks, "\n\n")
}

// formatMachineContext renders the context bundle the way the legacy agent
// prompt did: one line per section, JSON for the structured parts.
func formatMachineContext(mctx *MachineContext) string {
	var lines []string

	m := mctx.Machine
	lines = append(lines, fmt.Sprintf(
		"Machine -> product_id=%s, type=%s, current_risk_level=%s, current_risk_score=%s, predicted_failure_type=%s",
		m.ProductID, orNA(m.Type), orNA(m.CurrentRiskLevel),
		floatOrNA(m.CurrentRiskScore), strOrNA(m.PredictedFailureType)))

	if p := mctx.LatestPrediction; p != nil {
		lines = append(lines, fmt.Sprintf(
			"Latest prediction -> ts=%s, risk_score=%.3f, risk_level=%s, failure=%s, top_factors=%s",
			p.TS.Format("2006-01-02T15:04:05Z"), p.RiskScore, p.RiskLevel,
			strOrNA(p.PredictedFailureType), strings.Join(p.TopFactors, ", ")))
	} else {
		lines = append(lines, "Latest prediction -> none")
	}

	if len(mctx.RecentAnomalies) > 0 {
		lines = append(lines, "Recent anomalies -> "+mustJSON(mctx.RecentAnomalies))
	} else {
		lines = append(lines, "Recent anomalies -> none")
	}

	if mctx.Sensors.Count > 0 {
		lines = append(lines, "Sensor readings summary -> "+mustJSON(mctx.Sensors))
	} else {
		lines = append(lines, "Sensor readings summary -> no readings in window")
	}

	return strings.Join(lines, "\n")
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

func strOrNA(s *string) string {
	if s == nil || *s == "" {
		return "n/a"
	}
	return *s
}

func floatOrNA(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *v)
}
