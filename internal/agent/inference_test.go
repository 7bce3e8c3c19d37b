package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/maintly/maintly/internal/llm"
)

type scriptedProvider struct {
	responses []string
	delay     time.Duration
	calls     int
	lastReq   llm.CompletionRequest
}

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.lastReq = req
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	content := p.responses[p.calls%len(p.responses)]
	p.calls++
	return &llm.CompletionResponse{Content: content}, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

func TestAnalyzeParsesInference(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`{"intent":"recommendation","product_ids":["L-47"],"window_days":14}`,
	}}
	o := NewOrchestrator(p, "test-model", time.Second)

	inf, err := o.Analyze(context.Background(), "what should I do about L-47?", &ChatRequest{Message: "m"}, NewPolicy(20, 5, 90, 7))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if inf.Intent != IntentRecommendation {
		t.Errorf("intent: got %s", inf.Intent)
	}
	if len(inf.ProductIDs) != 1 || inf.ProductIDs[0] != "L-47" {
		t.Errorf("product ids: got %v", inf.ProductIDs)
	}
	if !p.lastReq.JSONMode {
		t.Error("analyze must request JSON mode")
	}
}

func TestAnalyzeRejectsInvalidIntent(t *testing.T) {
	p := &scriptedProvider{responses: []string{`{"intent":"world_domination"}`}}
	o := NewOrchestrator(p, "test-model", time.Second)

	if _, err := o.Analyze(context.Background(), "m", &ChatRequest{Message: "m"}, NewPolicy(20, 5, 90, 7)); err == nil {
		t.Fatal("expected error for unknown intent")
	}
}

func TestAnalyzeStripsMarkdownFences(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		"```json\n{\"intent\":\"qa\"}\n```",
	}}
	o := NewOrchestrator(p, "test-model", time.Second)

	inf, err := o.Analyze(context.Background(), "m", &ChatRequest{Message: "m"}, NewPolicy(20, 5, 90, 7))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if inf.Intent != IntentQA {
		t.Errorf("intent: got %s", inf.Intent)
	}
}

func TestCompleteTimesOut(t *testing.T) {
	p := &scriptedProvider{responses: []string{`{"intent":"qa"}`}, delay: 200 * time.Millisecond}
	o := NewOrchestrator(p, "test-model", 20*time.Millisecond)

	start := time.Now()
	_, err := o.Analyze(context.Background(), "m", &ChatRequest{Message: "m"}, NewPolicy(20, 5, 90, 7))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("timeout did not abandon the in-flight call, took %s", elapsed)
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("error should mention the timeout: %v", err)
	}
}

func TestRespondValidatesBody(t *testing.T) {
	pol := NewPolicy(20, 5, 90, 7)
	inf := &Inference{Intent: IntentRecommendation}
	sel := Selection{Mode: SelectionExplicit}

	cases := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid recommendation",
			`{"intent":"recommendation","recommendation":{"action_text":"replace the tool","reason":"wear trending up","confidence":0.8,"failure_type":"Tool Wear Failure"}}`,
			true},
		{"no body",
			`{"intent":"recommendation"}`,
			false},
		{"two bodies",
			`{"intent":"recommendation","recommendation":{"action_text":"a","reason":"b","confidence":0.5},"qa":"also this"}`,
			false},
		{"wrong body for intent",
			`{"intent":"recommendation","qa":"answer"}`,
			false},
		{"confidence out of range",
			`{"intent":"recommendation","recommendation":{"action_text":"a","reason":"b","confidence":1.5}}`,
			false},
		{"blank action text",
			`{"intent":"recommendation","recommendation":{"action_text":"  ","reason":"b","confidence":0.5}}`,
			false},
	}

	for _, tc := range cases {
		p := &scriptedProvider{responses: []string{tc.body}}
		o := NewOrchestrator(p, "test-model", time.Second)
		_, err := o.Respond(context.Background(), "m", inf, sel, nil, pol)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestRespondQABody(t *testing.T) {
	p := &scriptedProvider{responses: []string{`{"intent":"qa","qa":"maintly watches your machines"}`}}
	o := NewOrchestrator(p, "test-model", time.Second)

	res, err := o.Respond(context.Background(), "what is this?", &Inference{Intent: IntentQA}, Selection{Mode: SelectionNone}, nil, NewPolicy(20, 5, 90, 7))
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if res.QA == nil || *res.QA == "" {
		t.Error("qa body missing")
	}
	if res.Recommendation != nil || res.Explanation != nil || res.List != nil {
		t.Error("only the qa body should be set")
	}
}
