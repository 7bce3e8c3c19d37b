// Package report renders a fleet health report: per-machine risk state,
// recent anomalies and the latest saved recommendations, as markdown and
// as a standalone HTML page.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maintly/maintly/internal/machines"
)

// Data is the collected report input.
type Data struct {
	GeneratedAt time.Time
	Machines    []MachineSection
}

// MachineSection is one machine's slice of the report.
type MachineSection struct {
	Machine         machines.Machine
	Anomalies       []machines.Anomaly
	Recommendations []machines.Recommendation
}

// Collect gathers report data for the whole fleet.
func Collect(ctx context.Context, store *machines.Store) (*Data, error) {
	list, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing machines: %w", err)
	}

	data := &Data{GeneratedAt: time.Now().UTC()}
	for _, m := range list {
		_, anomalies, err := store.Anomalies(ctx, m.ProductID, 3)
		if err != nil {
			return nil, fmt.Errorf("anomalies for %s: %w", m.ProductID, err)
		}
		_, recs, err := store.Recommendations(ctx, m.ProductID)
		if err != nil {
			return nil, fmt.Errorf("recommendations for %s: %w", m.ProductID, err)
		}
		if len(recs) > 3 {
			recs = recs[:3]
		}
		data.Machines = append(data.Machines, MachineSection{
			Machine:         m,
			Anomalies:       anomalies,
			Recommendations: recs,
		})
	}
	return data, nil
}

// Markdown renders the report as markdown.
func Markdown(data *Data) string {
	var sb strings.Builder
	sb.WriteString("# Fleet Health Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated %s · %d machine(s)\n\n",
		data.GeneratedAt.Format("2006-01-02 15:04 UTC"), len(data.Machines)))

	high, medium := 0, 0
	for _, s := range data.Machines {
		switch s.Machine.CurrentRiskLevel {
		case string(machines.RiskHigh):
			high++
		case string(machines.RiskMedium):
			medium++
		}
	}
	sb.WriteString(fmt.Sprintf("**%d high risk**, %d medium risk, %d healthy.\n\n",
		high, medium, len(data.Machines)-high-medium))

	for _, s := range data.Machines {
		m := s.Machine
		sb.WriteString(fmt.Sprintf("## %s (%s)\n\n", m.ProductID, m.Type))

		score := "n/a"
		if m.CurrentRiskScore != nil {
			score = fmt.Sprintf("%.3f", *m.CurrentRiskScore)
		}
		sb.WriteString(fmt.Sprintf("- Risk: **%s** (score %s)\n", m.CurrentRiskLevel, score))
		if m.PredictedFailureType != nil && *m.PredictedFailureType != "" {
			sb.WriteString(fmt.Sprintf("- Predicted failure: %s\n", *m.PredictedFailureType))
		}
		if m.LastReadingAt != nil {
			sb.WriteString(fmt.Sprintf("- Last reading: %s\n", m.LastReadingAt.Format(time.RFC3339)))
		}
		sb.WriteString("\n")

		if len(s.Anomalies) > 0 {
			sb.WriteString("### Recent anomalies\n\n")
			for _, a := range s.Anomalies {
				sb.WriteString(fmt.Sprintf("- %s · score %.3f (%s): %s\n",
					a.DetectedAt.Format("2006-01-02 15:04"), a.RiskScore, a.RiskLevel, a.Reason))
			}
			sb.WriteString("\n")
		}

		if len(s.Recommendations) > 0 {
			sb.WriteString("### Latest recommendations\n\n")
			for _, r := range s.Recommendations {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", r.CreatedAt.Format("2006-01-02"), r.ActionText))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
