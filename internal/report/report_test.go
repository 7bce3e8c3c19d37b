package report

import (
	"strings"
	"testing"
	"time"

	"github.com/maintly/maintly/internal/machines"
)

func sampleData() *Data {
	score := 0.82
	failure := "Tool Wear Failure"
	return &Data{
		GeneratedAt: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		Machines: []MachineSection{
			{
				Machine: machines.Machine{
					ProductID:            "L-47",
					Type:                 "lathe",
					CurrentRiskLevel:     "high",
					CurrentRiskScore:     &score,
					PredictedFailureType: &failure,
				},
				Anomalies: []machines.Anomaly{
					{DetectedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), RiskScore: 0.8, RiskLevel: "high", Reason: "torque drift"},
				},
				Recommendations: []machines.Recommendation{
					{CreatedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), ActionText: "Replace the cutting tool"},
				},
			},
			{
				Machine: machines.Machine{ProductID: "D-15", Type: "drill", CurrentRiskLevel: "low"},
			},
		},
	}
}

func TestMarkdownSummarizesFleet(t *testing.T) {
	md := Markdown(sampleData())

	for _, want := range []string{
		"# Fleet Health Report",
		"**1 high risk**, 0 medium risk, 1 healthy.",
		"## L-47 (lathe)",
		"score 0.820",
		"Predicted failure: Tool Wear Failure",
		"torque drift",
		"Replace the cutting tool",
		"## D-15 (drill)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	if strings.Contains(md, "score n/a") && !strings.Contains(md, "D-15") {
		t.Error("machines without a score should render n/a")
	}
}

func TestHTMLRendersPage(t *testing.T) {
	out, err := HTML(sampleData())
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}

	page := string(out)
	if !strings.Contains(page, "<title>Fleet Health Report</title>") {
		t.Error("page title missing")
	}
	if !strings.Contains(page, "<h2") || !strings.Contains(page, "L-47") {
		t.Errorf("rendered body missing machine sections: %s", page[:min(len(page), 200)])
	}
}
