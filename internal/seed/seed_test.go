package seed

import (
	"context"
	"testing"

	"github.com/maintly/maintly/internal/db"
)

type nopReporter struct{}

func (nopReporter) Start(total int) {}
func (nopReporter) Update(current int, message string) {}
func (nopReporter) Finish() {}

func TestRunSeedsFleet(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()

	if err := Run(context.Background(), database, nopReporter{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var machineCount int
	if err := database.QueryRow(`SELECT COUNT(*) FROM machines`).Scan(&machineCount); err != nil {
		t.Fatalf("count machines: %v", err)
	}
	if machineCount != len(fleet) {
		t.Errorf("machines: got %d, want %d", machineCount, len(fleet))
	}

	// 14 days of hourly readings, inclusive of both endpoints.
	var readings int
	if err := database.QueryRow(
		`SELECT COUNT(*) FROM sensor_readings r JOIN machines m ON m.id = r.machine_id WHERE m.product_id = 'L-47'`,
	).Scan(&readings); err != nil {
		t.Fatalf("count readings: %v", err)
	}
	if readings != 14*24+1 {
		t.Errorf("readings for L-47: got %d, want %d", readings, 14*24+1)
	}

	var predictions int
	if err := database.QueryRow(
		`SELECT COUNT(*) FROM predictions p JOIN machines m ON m.id = p.machine_id WHERE m.product_id = 'L-47'`,
	).Scan(&predictions); err != nil {
		t.Fatalf("count predictions: %v", err)
	}
	if predictions != 14 {
		t.Errorf("predictions for L-47: got %d, want 14", predictions)
	}

	var anomalies int
	if err := database.QueryRow(
		`SELECT COUNT(*) FROM anomalies a JOIN machines m ON m.id = a.machine_id WHERE m.product_id = 'L-47'`,
	).Scan(&anomalies); err != nil {
		t.Fatalf("count anomalies: %v", err)
	}
	if anomalies == 0 {
		t.Error("L-47 should have anomalies accompanying its high-risk predictions")
	}

	var tickets int
	if err := database.QueryRow(
		`SELECT COUNT(*) FROM tickets t JOIN machines m ON m.id = t.machine_id WHERE m.product_id = 'D-15'`,
	).Scan(&tickets); err != nil {
		t.Fatalf("count tickets: %v", err)
	}
	if tickets != 0 {
		t.Errorf("low-risk D-15 should get no ticket, got %d", tickets)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()

	for i := 0; i < 2; i++ {
		if err := Run(context.Background(), database, nopReporter{}); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}

	var machineCount int
	if err := database.QueryRow(`SELECT COUNT(*) FROM machines`).Scan(&machineCount); err != nil {
		t.Fatalf("count machines: %v", err)
	}
	if machineCount != len(fleet) {
		t.Errorf("re-seeding must replace, not duplicate: got %d machines", machineCount)
	}
}

func TestRiskLevelFor(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.1, "low"},
		{0.35, "medium"},
		{0.69, "medium"},
		{0.7, "high"},
		{0.95, "high"},
	}
	for _, tc := range cases {
		if got := string(riskLevelFor(tc.score)); got != tc.want {
			t.Errorf("riskLevelFor(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
