package predict

import (
	"math"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// metersPerDegree approximates one degree of latitude; longitude is
// scaled by the cosine of the latitude before use.
const metersPerDegree = 111000.0

// Waypoint is one point of the reference trajectory with its target speed.
type Waypoint struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	TargetSpeed float64 `json:"target_speed"` // km/h
}

// Racing line recommendation labels.
const (
	LineOnLine  = "ON_LINE - maintain current trajectory"
	LineOffLine = "OFF_LINE - return to racing line"
	LineTooSlow = "TOO_SLOW - increase pace to target speed"
	LineTooFast = "TOO_FAST - ease off to protect energy"
	LineAdjust  = "MINOR_ADJUST - small correction toward the line"
)

// RacingLinePredictor measures lateral deviation from the reference
// trajectory and speed deviation from the local target.
type RacingLinePredictor struct {
	waypoints []Waypoint
}

// NewRacingLinePredictor builds a predictor over the given trajectory. An
// empty slice falls back to the stock reference lap.
func NewRacingLinePredictor(waypoints []Waypoint) *RacingLinePredictor {
	if len(waypoints) == 0 {
		waypoints = defaultReferenceLap()
	}
	return &RacingLinePredictor{waypoints: waypoints}
}

func (p *RacingLinePredictor) ID() model.PredictorID { return model.PredictorRacingLine }

// Waypoints returns the reference trajectory.
func (p *RacingLinePredictor) Waypoints() []Waypoint { return p.waypoints }

// Predict requires a GPS fix and speed.
func (p *RacingLinePredictor) Predict(sample model.TelemetrySample) (any, error) {
	if !sample.Has(model.KeyGPSLat, model.KeyGPSLon, model.KeySpeed) {
		return nil, errUnavailable()
	}
	lat := sample.Value(model.KeyGPSLat)
	lon := sample.Value(model.KeyGPSLon)
	speed := sample.Value(model.KeySpeed)

	idx, deviation := p.nearest(lat, lon)
	target := p.waypoints[idx].TargetSpeed
	speedDev := speed - target
	// Slower than target means lost sector time, hence the sign flip.
	sectorDiff := -speedDev * 0.1

	res := model.RacingLineResult{
		DeviationMeters: deviation,
		SpeedDeviation:  speedDev,
		SectorTimeDiff:  sectorDiff,
		Confidence:      1 - math.Min(deviation/10, 1),
		NearestWaypoint: idx,
		ProgressPct:     float64(idx) / float64(len(p.waypoints)) * 100,
	}

	switch {
	case deviation < 2 && math.Abs(sectorDiff) < 2:
		res.Recommendation = LineOnLine
	case deviation > 10:
		res.Recommendation = LineOffLine
	case sectorDiff > 5:
		res.Recommendation = LineTooSlow
	case sectorDiff < -5:
		res.Recommendation = LineTooFast
	default:
		res.Recommendation = LineAdjust
	}
	return res, nil
}

// nearest returns the index of the closest waypoint and its distance in
// meters. Linear scan; reference laps stay small enough for that.
func (p *RacingLinePredictor) nearest(lat, lon float64) (int, float64) {
	bestIdx, bestDist := 0, math.MaxFloat64
	cosLat := math.Cos(lat * math.Pi / 180)
	for i, wp := range p.waypoints {
		dLat := (lat - wp.Lat) * metersPerDegree
		dLon := (lon - wp.Lon) * metersPerDegree * cosLat
		d := math.Hypot(dLat, dLon)
		if d < bestDist {
			bestIdx, bestDist = i, d
		}
	}
	return bestIdx, bestDist
}

// defaultReferenceLap is a short oval around the Ogata test course used
// when no trajectory is configured.
func defaultReferenceLap() []Waypoint {
	return []Waypoint{
		{Lat: 39.9520, Lon: 139.9230, TargetSpeed: 35},
		{Lat: 39.9524, Lon: 139.9238, TargetSpeed: 32},
		{Lat: 39.9528, Lon: 139.9246, TargetSpeed: 28},
		{Lat: 39.9532, Lon: 139.9240, TargetSpeed: 30},
		{Lat: 39.9534, Lon: 139.9230, TargetSpeed: 34},
		{Lat: 39.9532, Lon: 139.9220, TargetSpeed: 30},
		{Lat: 39.9528, Lon: 139.9214, TargetSpeed: 27},
		{Lat: 39.9524, Lon: 139.9222, TargetSpeed: 31},
	}
}
