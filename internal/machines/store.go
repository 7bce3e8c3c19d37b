package machines

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/maintly/maintly/internal/apperr"
	"github.com/maintly/maintly/internal/db"
)

// Store provides read access to equipment state and history.
type Store struct {
	db *db.DB
}

// NewStore creates a new machines store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const machineColumns = `id, product_id, type, location, last_reading_at,
       current_risk_level, current_risk_score, predicted_failure_type`

// List returns all machines ordered by product id.
func (s *Store) List(ctx context.Context) ([]Machine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+machineColumns+` FROM machines ORDER BY product_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing machines: %w", err)
	}
	defer rows.Close()

	var out []Machine
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// GetByProductID returns the machine with the given external product id.
func (s *Store) GetByProductID(ctx context.Context, productID string) (*Machine, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+machineColumns+` FROM machines WHERE product_id = ? LIMIT 1`, productID)
	m, err := scanMachine(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("machine with product_id %s not found", productID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting machine %s: %w", productID, err)
	}
	return m, nil
}

// HistoryOptions bound a sensor history query.
type HistoryOptions struct {
	From *time.Time
	To   *time.Time
	Agg  string // e.g. "5m", "1h", "1d"; defaults to "1h"
}

var aggPattern = regexp.MustCompile(`^(\d+)\s*([smhd])$`)

// parseAggregationInterval converts an interval such as "5m" or "1h" into
// its length in seconds.
func parseAggregationInterval(agg string) (int64, error) {
	if agg == "" {
		agg = "1h"
	}
	m := aggPattern.FindStringSubmatch(agg)
	if m == nil {
		return 0, apperr.Invariant("invalid agg parameter %q: use a format like 5m, 1h or 1d", agg)
	}
	amount, _ := strconv.ParseInt(m[1], 10, 64)
	if amount <= 0 {
		return 0, apperr.Invariant("agg must be greater than 0")
	}
	switch m[2] {
	case "s":
		return amount, nil
	case "m":
		return amount * 60, nil
	case "h":
		return amount * 3600, nil
	default:
		return amount * 86400, nil
	}
}

// SensorHistory returns time-bucketed sensor averages for the machine.
func (s *Store) SensorHistory(ctx context.Context, productID string, opts HistoryOptions) (*Machine, []SensorPoint, error) {
	machine, err := s.GetByProductID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}

	bucketSec, err := parseAggregationInterval(opts.Agg)
	if err != nil {
		return nil, nil, err
	}

	query := `SELECT datetime((strftime('%s', ts) / ?) * ?, 'unixepoch') AS bucket,
	       AVG(air_temp_k), AVG(process_temp_k), AVG(rotational_speed_rpm),
	       AVG(torque_nm), AVG(tool_wear_min)
	FROM sensor_readings
	WHERE machine_id = ?`
	args := []any{bucketSec, bucketSec, machine.ID}
	if opts.From != nil {
		query += ` AND ts >= ?`
		args = append(args, opts.From.UTC())
	}
	if opts.To != nil {
		query += ` AND ts <= ?`
		args = append(args, opts.To.UTC())
	}
	query += ` GROUP BY bucket ORDER BY bucket ASC LIMIT 1000`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("querying sensor history: %w", err)
	}
	defer rows.Close()

	var points []SensorPoint
	for rows.Next() {
		var bucket string
		var air, proc, speed, torque, wear sql.NullFloat64
		if err := rows.Scan(&bucket, &air, &proc, &speed, &torque, &wear); err != nil {
			return nil, nil, fmt.Errorf("scanning sensor bucket: %w", err)
		}
		ts, err := time.Parse("2006-01-02 15:04:05", bucket)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing bucket %q: %w", bucket, err)
		}
		points = append(points, SensorPoint{
			Bucket:             ts.UTC(),
			AirTempK:           nullFloat(air),
			ProcessTempK:       nullFloat(proc),
			RotationalSpeedRPM: nullFloat(speed),
			TorqueNM:           nullFloat(torque),
			ToolWearMin:        nullFloat(wear),
		})
	}
	return machine, points, rows.Err()
}

// PredictionHistory returns the machine's predictions within the optional range,
// oldest first.
func (s *Store) PredictionHistory(ctx context.Context, productID string, from, to *time.Time) (*Machine, []Prediction, error) {
	machine, err := s.GetByProductID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}

	query := `SELECT ts, risk_score, risk_level, predicted_failure_type, top_factors
	FROM predictions WHERE machine_id = ?`
	args := []any{machine.ID}
	if from != nil {
		query += ` AND ts >= ?`
		args = append(args, from.UTC())
	}
	if to != nil {
		query += ` AND ts <= ?`
		args = append(args, to.UTC())
	}
	query += ` ORDER BY ts ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("querying predictions: %w", err)
	}
	defer rows.Close()

	var points []Prediction
	for rows.Next() {
		p, err := ScanPrediction(rows)
		if err != nil {
			return nil, nil, err
		}
		points = append(points, *p)
	}
	return machine, points, rows.Err()
}

// Anomalies returns the machine's most recent anomalies, newest first.
// The limit is clamped to [1, 100].
func (s *Store) Anomalies(ctx context.Context, productID string, limit int) (*Machine, []Anomaly, error) {
	machine, err := s.GetByProductID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}

	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT detected_at, risk_score, risk_level, predicted_failure_type, reason
		 FROM anomalies WHERE machine_id = ?
		 ORDER BY detected_at DESC LIMIT ?`, machine.ID, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("querying anomalies: %w", err)
	}
	defer rows.Close()

	var anomalies []Anomaly
	for rows.Next() {
		var a Anomaly
		var failure sql.NullString
		if err := rows.Scan(&a.DetectedAt, &a.RiskScore, &a.RiskLevel, &failure, &a.Reason); err != nil {
			return nil, nil, fmt.Errorf("scanning anomaly: %w", err)
		}
		if failure.Valid {
			a.PredictedFailureType = &failure.String
		}
		anomalies = append(anomalies, a)
	}
	return machine, anomalies, rows.Err()
}

// Recommendations returns the machine's 50 most recent stored recommendations.
func (s *Store) Recommendations(ctx context.Context, productID string) (*Machine, []Recommendation, error) {
	machine, err := s.GetByProductID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, machine_id, created_at, action_text, reason, horizon_days, confidence, failure_type, source
		 FROM recommendations WHERE machine_id = ?
		 ORDER BY created_at DESC LIMIT 50`, machine.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("querying recommendations: %w", err)
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		var r Recommendation
		var horizon, confidence sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.MachineID, &r.CreatedAt, &r.ActionText, &r.Reason,
			&horizon, &confidence, &r.FailureType, &r.Source); err != nil {
			return nil, nil, fmt.Errorf("scanning recommendation: %w", err)
		}
		r.HorizonDays = nullFloat(horizon)
		r.Confidence = nullFloat(confidence)
		recs = append(recs, r)
	}
	return machine, recs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMachine(row rowScanner) (*Machine, error) {
	var m Machine
	var lastReading sql.NullTime
	var score sql.NullFloat64
	var failure sql.NullString
	err := row.Scan(&m.ID, &m.ProductID, &m.Type, &m.Location, &lastReading,
		&m.CurrentRiskLevel, &score, &failure)
	if err != nil {
		return nil, err
	}
	if lastReading.Valid {
		t := lastReading.Time.UTC()
		m.LastReadingAt = &t
	}
	m.CurrentRiskScore = nullFloat(score)
	if failure.Valid {
		m.PredictedFailureType = &failure.String
	}
	return &m, nil
}

// ScanPrediction scans one predictions row in column order
// (ts, risk_score, risk_level, predicted_failure_type, top_factors).
func ScanPrediction(row rowScanner) (*Prediction, error) {
	var p Prediction
	var failure sql.NullString
	var factors string
	if err := row.Scan(&p.TS, &p.RiskScore, &p.RiskLevel, &failure, &factors); err != nil {
		return nil, fmt.Errorf("scanning prediction: %w", err)
	}
	if failure.Valid {
		p.PredictedFailureType = &failure.String
	}
	if factors != "" && factors != "[]" {
		if err := json.Unmarshal([]byte(factors), &p.TopFactors); err != nil {
			// Legacy rows may carry a bare string instead of a JSON array.
			p.TopFactors = []string{factors}
		}
	}
	p.TS = p.TS.UTC()
	return &p, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
