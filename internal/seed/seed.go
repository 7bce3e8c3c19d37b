// Package seed loads a deterministic demo fleet: machines with sensor
// history, risk predictions, anomalies and a few starter tickets.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/maintly/maintly/internal/db"
	"github.com/maintly/maintly/internal/machines"
	"github.com/maintly/maintly/internal/progress"
)

// Risk bucket thresholds, matching the ML service's classification.
const (
	mediumThreshold = 0.35
	highThreshold   = 0.7
)

type machineSpec struct {
	productID string
	machType  string
	location  string
	baseRisk  float64 // peak risk the machine trends toward
	failure   string  // seeded failure label for risky machines
}

var fleet = []machineSpec{
	{"L-47", "lathe", "hall A", 0.82, "Tool Wear Failure"},
	{"M-12", "milling", "hall A", 0.74, "Overheat"},
	{"P-03", "press", "hall B", 0.55, ""},
	{"C-21", "compressor", "hall B", 0.41, ""},
	{"G-08", "grinder", "hall C", 0.22, ""},
	{"D-15", "drill", "hall C", 0.12, ""},
}

// Run populates the database with the demo fleet. Existing rows with the
// same product ids are replaced.
func Run(ctx context.Context, database *db.DB, reporter progress.Reporter) error {
	rng := rand.New(rand.NewSource(42))
	now := time.Now().UTC().Truncate(time.Hour)

	reporter.Start(len(fleet))
	defer reporter.Finish()

	for i, spec := range fleet {
		if err := seedMachine(ctx, database, rng, now, spec); err != nil {
			return fmt.Errorf("seeding %s: %w", spec.productID, err)
		}
		reporter.Update(i+1, spec.productID)
	}
	return nil
}

func seedMachine(ctx context.Context, database *db.DB, rng *rand.Rand, now time.Time, spec machineSpec) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM machines WHERE product_id = ?`, spec.productID); err != nil {
		return err
	}

	machineID := uuid.New().String()
	lastReading := now

	currentRisk := spec.baseRisk
	level := riskLevelFor(currentRisk)
	var failure any
	if spec.failure != "" {
		failure = spec.failure
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO machines (id, product_id, type, location, last_reading_at, current_risk_level, current_risk_score, predicted_failure_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		machineID, spec.productID, spec.machType, spec.location, lastReading,
		string(level), currentRisk, failure); err != nil {
		return err
	}

	// 14 days of hourly sensor readings trending toward the peak risk.
	const hours = 14 * 24
	for h := hours; h >= 0; h-- {
		ts := now.Add(-time.Duration(h) * time.Hour)
		wear := float64(hours-h) * 0.9 * spec.baseRisk
		airTemp := 298.0 + rng.Float64()*2
		procTemp := airTemp + 9.5 + spec.baseRisk*3*progress01(h, hours)
		speed := 1500.0 + rng.NormFloat64()*80
		torque := 40.0 + rng.NormFloat64()*8 + spec.baseRisk*10*progress01(h, hours)

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sensor_readings (machine_id, ts, air_temp_k, process_temp_k, rotational_speed_rpm, torque_nm, tool_wear_min)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			machineID, ts, round2(airTemp), round2(procTemp), round2(speed), round2(torque), round2(wear)); err != nil {
			return err
		}
	}

	// Daily predictions ramping from low risk to the machine's peak.
	for d := 13; d >= 0; d-- {
		ts := now.Add(-time.Duration(d) * 24 * time.Hour)
		score := spec.baseRisk * progress01(d*24, hours)
		score = math.Min(1, math.Max(0.02, score+rng.NormFloat64()*0.02))
		lvl := riskLevelFor(score)

		var predFailure any
		if spec.failure != "" && lvl != machines.RiskLow {
			predFailure = spec.failure
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO predictions (id, machine_id, ts, risk_score, risk_level, predicted_failure_type, top_factors)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), machineID, ts, round3(score), string(lvl), predFailure,
			topFactorsFor(spec)); err != nil {
			return err
		}

		// Anomalies accompany high-risk predictions at the same instant.
		if lvl == machines.RiskHigh {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO anomalies (id, machine_id, detected_at, risk_score, risk_level, predicted_failure_type, reason)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), machineID, ts, round3(score), string(lvl), predFailure,
				"risk score crossed the high threshold"); err != nil {
				return err
			}
		}
	}

	// One open ticket for the riskiest machines.
	if spec.baseRisk >= highThreshold {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tickets (id, machine_id, status, priority, title, description)
			 VALUES (?, ?, 'open', 'high', ?, ?)`,
			uuid.New().String(), machineID,
			fmt.Sprintf("Inspect %s before next shift", spec.productID),
			fmt.Sprintf("Automated alert: %s risk trending high.", spec.productID)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// progress01 maps hours-ago onto [0, 1], 1 being now.
func progress01(hoursAgo, total int) float64 {
	return float64(total-hoursAgo) / float64(total)
}

func riskLevelFor(score float64) machines.RiskLevel {
	switch {
	case score >= highThreshold:
		return machines.RiskHigh
	case score >= mediumThreshold:
		return machines.RiskMedium
	default:
		return machines.RiskLow
	}
}

func topFactorsFor(spec machineSpec) string {
	switch spec.failure {
	case "Tool Wear Failure":
		return `["tool_wear_min","torque_nm"]`
	case "Overheat":
		return `["process_temp_k","air_temp_k"]`
	default:
		return `["torque_nm"]`
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
