package agent

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maintly/maintly/internal/machines"
)

// ContextReader provides the bounded per-machine reads the assembler needs.
type ContextReader interface {
	GetMachineByProductID(ctx context.Context, productID string) (*machines.Machine, error)
	LatestPrediction(ctx context.Context, machineID string) (*machines.Prediction, error)
	RecentAnomalies(ctx context.Context, machineID string, limit int) ([]machines.Anomaly, error)
	RecentSensorReadings(ctx context.Context, machineID string, since time.Time) ([]machines.SensorReading, error)
}

// AssembleContext fetches the target machine's read bundle: its latest
// prediction, recent anomalies and recent sensor readings, the last three
// concurrently. lookbackHours is clamped to [1, 168] and anomalyLimit to
// [1, 10].
func AssembleContext(ctx context.Context, r ContextReader, productID string, now time.Time, lookbackHours, anomalyLimit int) (*MachineContext, error) {
	machine, err := r.GetMachineByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}

	lookbackHours = clampInt(lookbackHours, 1, 168)
	anomalyLimit = clampInt(anomalyLimit, 1, 10)
	since := now.UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	mc := &MachineContext{Machine: *machine}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pred, err := r.LatestPrediction(gctx, machine.ID)
		if err != nil {
			return err
		}
		mc.LatestPrediction = pred
		return nil
	})
	g.Go(func() error {
		anomalies, err := r.RecentAnomalies(gctx, machine.ID, anomalyLimit)
		if err != nil {
			return err
		}
		mc.RecentAnomalies = anomalies
		return nil
	})
	g.Go(func() error {
		readings, err := r.RecentSensorReadings(gctx, machine.ID, since)
		if err != nil {
			return err
		}
		mc.Readings = readings
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mc.Sensors = summarizeSensors(mc.Readings)
	return mc, nil
}

// sensorChannels are the five telemetry channels aggregated for the prompt.
var sensorChannels = []struct {
	name  string
	value func(machines.SensorReading) *float64
}{
	{"air_temp_k", func(r machines.SensorReading) *float64 { return r.AirTempK }},
	{"process_temp_k", func(r machines.SensorReading) *float64 { return r.ProcessTempK }},
	{"rotational_speed_rpm", func(r machines.SensorReading) *float64 { return r.RotationalSpeedRPM }},
	{"torque_nm", func(r machines.SensorReading) *float64 { return r.TorqueNM }},
	{"tool_wear_min", func(r machines.SensorReading) *float64 { return r.ToolWearMin }},
}

// summarizeSensors aggregates a newest-first reading window: per-channel
// avg/min/max over finite values, coverage hours, the temperature delta of
// the most recent fully-instrumented reading, and the last three samples.
func summarizeSensors(readings []machines.SensorReading) SensorSummary {
	summary := SensorSummary{
		Stats:         map[string]MetricStats{},
		RecentSamples: []machines.SensorReading{},
	}
	if len(readings) == 0 {
		return summary
	}

	summary.Count = len(readings)

	// Readings arrive newest first; oldest is the last element.
	newest, oldest := readings[0].TS, readings[len(readings)-1].TS
	if span := newest.Sub(oldest).Hours(); span > 0 {
		summary.CoverageHours = round2(span)
	}

	for _, ch := range sensorChannels {
		var sum float64
		var count int
		min, max := math.Inf(1), math.Inf(-1)
		for _, row := range readings {
			v := ch.value(row)
			if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
				continue
			}
			sum += *v
			count++
			min = math.Min(min, *v)
			max = math.Max(max, *v)
		}
		if count > 0 {
			summary.Stats[ch.name] = MetricStats{
				Avg: round2(sum / float64(count)),
				Min: round2(min),
				Max: round2(max),
			}
		}
	}

	// Delta between process and ambient temperature from the most recent
	// reading carrying both.
	for _, row := range readings {
		if row.ProcessTempK != nil && row.AirTempK != nil {
			delta := round2(*row.ProcessTempK - *row.AirTempK)
			summary.DeltaTempK = &delta
			break
		}
	}

	n := len(readings)
	if n > 3 {
		n = 3
	}
	summary.RecentSamples = append(summary.RecentSamples, readings[:n]...)

	return summary
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
