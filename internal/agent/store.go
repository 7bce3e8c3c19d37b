package agent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/maintly/maintly/internal/apperr"
	"github.com/maintly/maintly/internal/db"
	"github.com/maintly/maintly/internal/machines"
)

// Store is the agent's repository: bounded reads for selection and context
// assembly plus the transactional side-effect writes.
type Store struct {
	db *db.DB
}

// NewStore creates a new agent store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// GetMachineByProductID returns the machine with the given external id.
func (s *Store) GetMachineByProductID(ctx context.Context, productID string) (*machines.Machine, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, product_id, type, location, last_reading_at,
		        current_risk_level, current_risk_score, predicted_failure_type
		 FROM machines WHERE product_id = ? LIMIT 1`, productID)

	var m machines.Machine
	var lastReading sql.NullTime
	var score sql.NullFloat64
	var failure sql.NullString
	err := row.Scan(&m.ID, &m.ProductID, &m.Type, &m.Location, &lastReading,
		&m.CurrentRiskLevel, &score, &failure)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("machine with product_id %s not found", productID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting machine %s: %w", productID, err)
	}
	if lastReading.Valid {
		t := lastReading.Time.UTC()
		m.LastReadingAt = &t
	}
	if score.Valid {
		v := score.Float64
		m.CurrentRiskScore = &v
	}
	if failure.Valid {
		m.PredictedFailureType = &failure.String
	}
	return &m, nil
}

// LatestPrediction returns the machine's newest prediction, or nil when the
// machine has none.
func (s *Store) LatestPrediction(ctx context.Context, machineID string) (*machines.Prediction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT ts, risk_score, risk_level, predicted_failure_type, top_factors
		 FROM predictions WHERE machine_id = ?
		 ORDER BY ts DESC LIMIT 1`, machineID)

	p, err := machines.ScanPrediction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// RecentAnomalies returns the machine's newest anomalies, newest first.
func (s *Store) RecentAnomalies(ctx context.Context, machineID string, limit int) ([]machines.Anomaly, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT detected_at, risk_score, risk_level, predicted_failure_type, reason
		 FROM anomalies WHERE machine_id = ?
		 ORDER BY detected_at DESC LIMIT ?`, machineID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent anomalies: %w", err)
	}
	defer rows.Close()

	var out []machines.Anomaly
	for rows.Next() {
		var a machines.Anomaly
		var failure sql.NullString
		if err := rows.Scan(&a.DetectedAt, &a.RiskScore, &a.RiskLevel, &failure, &a.Reason); err != nil {
			return nil, fmt.Errorf("scanning anomaly: %w", err)
		}
		a.DetectedAt = a.DetectedAt.UTC()
		if failure.Valid {
			a.PredictedFailureType = &failure.String
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecentSensorReadings returns the machine's readings since the given
// instant, newest first, capped at 300 rows.
func (s *Store) RecentSensorReadings(ctx context.Context, machineID string, since time.Time) ([]machines.SensorReading, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, air_temp_k, process_temp_k, rotational_speed_rpm, torque_nm, tool_wear_min
		 FROM sensor_readings WHERE machine_id = ? AND ts >= ?
		 ORDER BY ts DESC LIMIT 300`, machineID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying sensor readings: %w", err)
	}
	defer rows.Close()

	var out []machines.SensorReading
	for rows.Next() {
		var r machines.SensorReading
		var air, proc, speed, torque, wear sql.NullFloat64
		if err := rows.Scan(&r.TS, &air, &proc, &speed, &torque, &wear); err != nil {
			return nil, fmt.Errorf("scanning sensor reading: %w", err)
		}
		r.TS = r.TS.UTC()
		r.AirTempK = floatPtr(air)
		r.ProcessTempK = floatPtr(proc)
		r.RotationalSpeedRPM = floatPtr(speed)
		r.TorqueNM = floatPtr(torque)
		r.ToolWearMin = floatPtr(wear)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListTopRisk ranks machines by their highest recent prediction within the
// window: risk score descending, ties broken by most recent prediction.
func (s *Store) ListTopRisk(ctx context.Context, from, to time.Time, limit int) ([]RiskCandidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.product_id, m.type, p.risk_score, p.risk_level, p.ts
		 FROM predictions p
		 JOIN machines m ON m.id = p.machine_id
		 WHERE p.ts >= ? AND p.ts <= ?
		   AND p.ts = (SELECT MAX(p2.ts) FROM predictions p2
		               WHERE p2.machine_id = p.machine_id AND p2.ts >= ? AND p2.ts <= ?)
		 ORDER BY p.risk_score DESC, p.ts DESC
		 LIMIT ?`,
		from.UTC(), to.UTC(), from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("querying top risk: %w", err)
	}
	defer rows.Close()

	var out []RiskCandidate
	for rows.Next() {
		var c RiskCandidate
		if err := rows.Scan(&c.ProductID, &c.Type, &c.RiskScore, &c.RiskLevel, &c.PredictedAt); err != nil {
			return nil, fmt.Errorf("scanning risk candidate: %w", err)
		}
		c.PredictedAt = c.PredictedAt.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateFailureType propagates a newly inferred failure type to the machine,
// its latest prediction and the anomaly detected at that same timestamp, as
// one transaction. A failure at any step rolls everything back.
func (s *Store) UpdateFailureType(ctx context.Context, machineID, productID, failureType string) (bool, *time.Time, error) {
	if failureType == "" {
		return false, nil, apperr.Invariant("failure type is required to update records")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, nil, fmt.Errorf("beginning failure-type transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE machines SET predicted_failure_type = ? WHERE product_id = ?`,
		failureType, productID)
	if err != nil {
		return false, nil, fmt.Errorf("updating machine failure type: %w", err)
	}
	updatedRows, _ := res.RowsAffected()

	var latestTs *time.Time
	var ts time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT ts FROM predictions WHERE machine_id = ? ORDER BY ts DESC LIMIT 1`,
		machineID,
	).Scan(&ts)
	switch {
	case err == sql.ErrNoRows:
		// No prediction to annotate; the machine update alone stands.
	case err != nil:
		return false, nil, fmt.Errorf("finding latest prediction: %w", err)
	default:
		ts = ts.UTC()
		latestTs = &ts
		if _, err := tx.ExecContext(ctx,
			`UPDATE predictions SET predicted_failure_type = ? WHERE machine_id = ? AND ts = ?`,
			failureType, machineID, ts); err != nil {
			return false, nil, fmt.Errorf("updating prediction failure type: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE anomalies SET predicted_failure_type = ? WHERE machine_id = ? AND detected_at = ?`,
			failureType, machineID, ts); err != nil {
			return false, nil, fmt.Errorf("updating anomaly failure type: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, nil, fmt.Errorf("committing failure-type transaction: %w", err)
	}
	return updatedRows > 0, latestTs, nil
}

// InsertRecommendation persists a produced recommendation for the machine.
func (s *Store) InsertRecommendation(ctx context.Context, machineID string, rec Recommendation) (*machines.Recommendation, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	var horizon any
	if rec.HorizonDays != nil {
		horizon = *rec.HorizonDays
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recommendations (id, machine_id, created_at, action_text, reason, horizon_days, confidence, failure_type, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'agent')`,
		id, machineID, now, rec.ActionText, rec.Reason, horizon, rec.Confidence, rec.FailureType)
	if err != nil {
		return nil, fmt.Errorf("inserting recommendation: %w", err)
	}

	confidence := rec.Confidence
	return &machines.Recommendation{
		ID:          id,
		MachineID:   machineID,
		CreatedAt:   now,
		ActionText:  rec.ActionText,
		Reason:      rec.Reason,
		HorizonDays: rec.HorizonDays,
		Confidence:  &confidence,
		FailureType: rec.FailureType,
		Source:      "agent",
	}, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
