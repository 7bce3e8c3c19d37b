package machines

import "time"

// RiskLevel buckets a risk score, mirroring the ML service's thresholds.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Machine is one monitored equipment unit.
type Machine struct {
	ID                   string     `json:"id"`
	ProductID            string     `json:"product_id"`
	Type                 string     `json:"type"`
	Location             string     `json:"location"`
	LastReadingAt        *time.Time `json:"last_reading_at"`
	CurrentRiskLevel     string     `json:"current_risk_level"`
	CurrentRiskScore     *float64   `json:"current_risk_score"`
	PredictedFailureType *string    `json:"predicted_failure_type"`
}

// SensorReading is one raw telemetry row. Channels are nullable because
// individual sensors drop out independently.
type SensorReading struct {
	TS                 time.Time `json:"ts"`
	AirTempK           *float64  `json:"air_temp_k"`
	ProcessTempK       *float64  `json:"process_temp_k"`
	RotationalSpeedRPM *float64  `json:"rotational_speed_rpm"`
	TorqueNM           *float64  `json:"torque_nm"`
	ToolWearMin        *float64  `json:"tool_wear_min"`
}

// SensorPoint is one time-bucketed aggregate of sensor readings.
type SensorPoint struct {
	Bucket             time.Time `json:"bucket"`
	AirTempK           *float64  `json:"air_temp_k"`
	ProcessTempK       *float64  `json:"process_temp_k"`
	RotationalSpeedRPM *float64  `json:"rotational_speed_rpm"`
	TorqueNM           *float64  `json:"torque_nm"`
	ToolWearMin        *float64  `json:"tool_wear_min"`
}

// Prediction is one risk prediction emitted by the ML pipeline.
type Prediction struct {
	TS                   time.Time `json:"ts"`
	RiskScore            float64   `json:"risk_score"`
	RiskLevel            string    `json:"risk_level"`
	PredictedFailureType *string   `json:"predicted_failure_type"`
	TopFactors           []string  `json:"top_factors,omitempty"`
}

// Anomaly is one detected telemetry anomaly.
type Anomaly struct {
	DetectedAt           time.Time `json:"detected_at"`
	RiskScore            float64   `json:"risk_score"`
	RiskLevel            string    `json:"risk_level"`
	PredictedFailureType *string   `json:"predicted_failure_type"`
	Reason               string    `json:"reason"`
}

// Recommendation is one stored maintenance recommendation.
type Recommendation struct {
	ID          string    `json:"id"`
	MachineID   string    `json:"machine_id"`
	CreatedAt   time.Time `json:"created_at"`
	ActionText  string    `json:"action_text"`
	Reason      string    `json:"reason"`
	HorizonDays *float64  `json:"horizon_days"`
	Confidence  *float64  `json:"confidence"`
	FailureType string    `json:"failure_type"`
	Source      string    `json:"source"`
}
