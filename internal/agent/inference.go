package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/maintly/maintly/internal/llm"
)

// InferenceService is the structured-inference capability the engine runs
// the two-phase protocol against.
type InferenceService interface {
	Analyze(ctx context.Context, message string, req *ChatRequest, pol Policy) (*Inference, error)
	Respond(ctx context.Context, message string, inf *Inference, sel Selection, mctx *MachineContext, pol Policy) (*ResponseResult, error)
}

// Orchestrator implements InferenceService against an llm.Provider. Each
// phase is bounded by the configured timeout racing the call; on expiry the
// in-flight call is abandoned (its late result is discarded, not cancelled)
// and the phase fails.
type Orchestrator struct {
	provider llm.Provider
	model    string
	timeout  time.Duration
}

// NewOrchestrator creates an inference orchestrator.
func NewOrchestrator(provider llm.Provider, model string, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Orchestrator{provider: provider, model: model, timeout: timeout}
}

// Analyze runs phase 1: intent and parameter inference. The output never
// carries a response body.
func (o *Orchestrator) Analyze(ctx context.Context, message string, req *ChatRequest, pol Policy) (*Inference, error) {
	content, err := o.complete(ctx, analyzeSystemPrompt, buildAnalyzePrompt(message, req, pol))
	if err != nil {
		return nil, fmt.Errorf("analyze phase: %w", err)
	}

	var inf Inference
	if err := decodeJSON(content, &inf); err != nil {
		return nil, fmt.Errorf("analyze phase: %w", err)
	}
	if !validIntent(inf.Intent) {
		return nil, fmt.Errorf("analyze phase: invalid intent %q", inf.Intent)
	}
	return &inf, nil
}

// Respond runs phase 2: producing the intent-selected response body.
func (o *Orchestrator) Respond(ctx context.Context, message string, inf *Inference, sel Selection, mctx *MachineContext, pol Policy) (*ResponseResult, error) {
	content, err := o.complete(ctx, respondSystemPrompt, buildRespondPrompt(message, inf, sel, mctx, pol))
	if err != nil {
		return nil, fmt.Errorf("respond phase: %w", err)
	}

	var res ResponseResult
	if err := decodeJSON(content, &res); err != nil {
		return nil, fmt.Errorf("respond phase: %w", err)
	}
	if err := validateResponseShape(&res); err != nil {
		return nil, fmt.Errorf("respond phase: %w", err)
	}
	return &res, nil
}

type completionResult struct {
	resp *llm.CompletionResponse
	err  error
}

// complete issues one JSON-mode completion, racing it against the timeout.
func (o *Orchestrator) complete(ctx context.Context, system, user string) (string, error) {
	ch := make(chan completionResult, 1)
	go func() {
		resp, err := o.provider.Complete(ctx, llm.CompletionRequest{
			Model: o.model,
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: system},
				{Role: llm.RoleUser, Content: user},
			},
			MaxTokens:   2048,
			Temperature: 0.2,
			JSONMode:    true,
		})
		ch <- completionResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", r.err
		}
		return r.resp.Content, nil
	case <-timer.C:
		return "", fmt.Errorf("inference call exceeded %s timeout", o.timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// decodeJSON extracts the first JSON object from a completion (models
// occasionally wrap it in markdown fences) and unmarshals it strictly.
func decodeJSON(content string, v any) error {
	jsonStr := content
	if idx := strings.Index(jsonStr, "{"); idx >= 0 {
		jsonStr = jsonStr[idx:]
	}
	if idx := strings.LastIndex(jsonStr, "}"); idx >= 0 {
		jsonStr = jsonStr[:idx+1]
	}
	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		return fmt.Errorf("response did not match the declared shape: %w", err)
	}
	return nil
}

// validateResponseShape enforces the respond contract: a valid intent and
// exactly the one body that intent selects. Business-level validity (for
// example an empty failure_type) is left to the caller.
func validateResponseShape(res *ResponseResult) error {
	if !validIntent(res.Intent) {
		return fmt.Errorf("invalid intent %q", res.Intent)
	}

	bodies := 0
	if res.Recommendation != nil {
		bodies++
	}
	if res.Explanation != nil {
		bodies++
	}
	if res.List != nil {
		bodies++
	}
	if res.QA != nil {
		bodies++
	}
	if bodies != 1 {
		return fmt.Errorf("expected exactly one response body, got %d", bodies)
	}

	switch res.Intent {
	case IntentRecommendation:
		rec := res.Recommendation
		if rec == nil {
			return fmt.Errorf("intent %s requires a recommendation body", res.Intent)
		}
		if strings.TrimSpace(rec.ActionText) == "" || strings.TrimSpace(rec.Reason) == "" {
			return fmt.Errorf("recommendation body is missing action_text or reason")
		}
		if rec.Confidence < 0 || rec.Confidence > 1 {
			return fmt.Errorf("recommendation confidence %v is out of [0,1]", rec.Confidence)
		}
	case IntentExplainRisk:
		if res.Explanation == nil {
			return fmt.Errorf("intent %s requires an explanation body", res.Intent)
		}
	case IntentListTopRisky:
		if res.List == nil {
			return fmt.Errorf("intent %s requires a list body", res.Intent)
		}
	case IntentQA:
		if res.QA == nil {
			return fmt.Errorf("intent %s requires a qa body", res.Intent)
		}
	}
	return nil
}
