package machines

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/maintly/maintly/internal/apperr"
	"github.com/maintly/maintly/internal/db"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func insertMachine(t *testing.T, database *db.DB, productID string) string {
	t.Helper()
	id := uuid.New().String()
	_, err := database.Exec(
		`INSERT INTO machines (id, product_id, type, current_risk_level, current_risk_score)
		 VALUES (?, ?, 'lathe', 'high', 0.82)`, id, productID)
	if err != nil {
		t.Fatalf("insert machine: %v", err)
	}
	return id
}

func TestListOrdersByProductID(t *testing.T) {
	database := testDB(t)
	insertMachine(t, database, "M-12")
	insertMachine(t, database, "L-47")
	store := NewStore(database)

	list, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("machines: got %d, want 2", len(list))
	}
	if list[0].ProductID != "L-47" || list[1].ProductID != "M-12" {
		t.Errorf("order: %s, %s", list[0].ProductID, list[1].ProductID)
	}
}

func TestGetByProductIDNotFound(t *testing.T) {
	store := NewStore(testDB(t))

	_, err := store.GetByProductID(context.Background(), "X-99")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("kind: got %v, want not_found", err)
	}
}

func TestParseAggregationInterval(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"", 3600, true},
		{"30s", 30, true},
		{"5m", 300, true},
		{"1h", 3600, true},
		{"2d", 172800, true},
		{"soon", 0, false},
		{"-5m", 0, false},
		{"5x", 0, false},
	}

	for _, tc := range cases {
		got, err := parseAggregationInterval(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("%q: got %d, %v; want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("%q: expected error", tc.in)
			} else if apperr.KindOf(err) != apperr.KindInvariant {
				t.Errorf("%q: kind %s, want invariant", tc.in, apperr.KindOf(err))
			}
		}
	}
}

func TestSensorHistoryBuckets(t *testing.T) {
	database := testDB(t)
	id := insertMachine(t, database, "L-47")
	store := NewStore(database)

	// Two readings in one hour bucket, one in the next.
	base := now.Truncate(time.Hour)
	for _, r := range []struct {
		ts  time.Time
		air float64
	}{
		{base.Add(5 * time.Minute), 298},
		{base.Add(25 * time.Minute), 302},
		{base.Add(70 * time.Minute), 310},
	} {
		if _, err := database.Exec(
			`INSERT INTO sensor_readings (machine_id, ts, air_temp_k) VALUES (?, ?, ?)`,
			id, r.ts, r.air); err != nil {
			t.Fatalf("insert reading: %v", err)
		}
	}

	machine, points, err := store.SensorHistory(context.Background(), "L-47", HistoryOptions{Agg: "1h"})
	if err != nil {
		t.Fatalf("SensorHistory: %v", err)
	}
	if machine.ProductID != "L-47" {
		t.Errorf("machine: %+v", machine)
	}
	if len(points) != 2 {
		t.Fatalf("buckets: got %d, want 2", len(points))
	}
	if points[0].AirTempK == nil || *points[0].AirTempK != 300 {
		t.Errorf("first bucket average: got %v, want 300", points[0].AirTempK)
	}
	if !points[0].Bucket.Before(points[1].Bucket) {
		t.Error("buckets should be ordered oldest first")
	}
}

func TestSensorHistoryRejectsBadAgg(t *testing.T) {
	database := testDB(t)
	insertMachine(t, database, "L-47")
	store := NewStore(database)

	_, _, err := store.SensorHistory(context.Background(), "L-47", HistoryOptions{Agg: "whenever"})
	if apperr.KindOf(err) != apperr.KindInvariant {
		t.Errorf("kind: got %v, want invariant", err)
	}
}

func TestPredictionHistoryRange(t *testing.T) {
	database := testDB(t)
	id := insertMachine(t, database, "L-47")
	store := NewStore(database)

	for i, score := range []float64{0.2, 0.5, 0.8} {
		ts := now.Add(-time.Duration(48-i*24) * time.Hour)
		if _, err := database.Exec(
			`INSERT INTO predictions (id, machine_id, ts, risk_score, risk_level, top_factors)
			 VALUES (?, ?, ?, ?, 'medium', '["tool_wear_min"]')`,
			uuid.New().String(), id, ts, score); err != nil {
			t.Fatalf("insert prediction: %v", err)
		}
	}

	from := now.Add(-30 * time.Hour)
	_, points, err := store.PredictionHistory(context.Background(), "L-47", &from, nil)
	if err != nil {
		t.Fatalf("PredictionHistory: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("points: got %d, want 2 after from-bound", len(points))
	}
	if points[0].TS.After(points[1].TS) {
		t.Error("predictions should be oldest first")
	}
	if len(points[0].TopFactors) != 1 || points[0].TopFactors[0] != "tool_wear_min" {
		t.Errorf("top factors: %v", points[0].TopFactors)
	}
}

func TestAnomaliesClampsLimit(t *testing.T) {
	database := testDB(t)
	id := insertMachine(t, database, "L-47")
	store := NewStore(database)

	for i := 0; i < 5; i++ {
		if _, err := database.Exec(
			`INSERT INTO anomalies (id, machine_id, detected_at, risk_score, risk_level, reason)
			 VALUES (?, ?, ?, 0.8, 'high', 'spike')`,
			uuid.New().String(), id, now.Add(-time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("insert anomaly: %v", err)
		}
	}

	_, anomalies, err := store.Anomalies(context.Background(), "L-47", -3)
	if err != nil {
		t.Fatalf("Anomalies: %v", err)
	}
	if len(anomalies) != 5 {
		t.Errorf("non-positive limit falls back to default: got %d rows", len(anomalies))
	}

	_, anomalies, err = store.Anomalies(context.Background(), "L-47", 2)
	if err != nil {
		t.Fatalf("Anomalies: %v", err)
	}
	if len(anomalies) != 2 {
		t.Errorf("limit 2: got %d rows", len(anomalies))
	}
	if !anomalies[0].DetectedAt.After(anomalies[1].DetectedAt) {
		t.Error("anomalies should be newest first")
	}
}

func TestScanPredictionLegacyFactors(t *testing.T) {
	database := testDB(t)
	id := insertMachine(t, database, "L-47")
	store := NewStore(database)

	if _, err := database.Exec(
		`INSERT INTO predictions (id, machine_id, ts, risk_score, risk_level, top_factors)
		 VALUES (?, ?, ?, 0.8, 'high', 'torque drift')`,
		uuid.New().String(), id, now); err != nil {
		t.Fatalf("insert prediction: %v", err)
	}

	_, points, err := store.PredictionHistory(context.Background(), "L-47", nil, nil)
	if err != nil {
		t.Fatalf("PredictionHistory: %v", err)
	}
	if len(points) != 1 || len(points[0].TopFactors) != 1 || points[0].TopFactors[0] != "torque drift" {
		t.Errorf("legacy factor rows should wrap into a single-element list: %+v", points)
	}
}
