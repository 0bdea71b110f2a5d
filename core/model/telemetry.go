package model

import "time"

// Telemetry channel keys. Samples arrive as flat key/value maps so every
// channel is optional; predictors probe for the keys they need.
const (
	KeySocCurrent = "soc_current"
	KeySpeedAvg   = "speed_avg"
	KeyMotorTemp  = "motor_temp"

	KeyLapCurrent    = "lap_current"
	KeyTotalLaps     = "race_total_laps"
	KeyEnergyPerLap  = "energy_per_lap_kwh"
	KeyWindSpeed     = "wind_speed"
	KeyRainIntensity = "rain_intensity"
	KeyTrackGrip     = "track_grip"

	KeyVibrationRMS      = "vibration_rms"
	KeyVibrationFFT50Hz  = "vibration_fft_50hz"
	KeyVibrationFFT100Hz = "vibration_fft_100hz"
	KeyBatteryCellTemp   = "battery_cell_temp_max"
	KeyWheelSpeedVar     = "wheel_speed_variance"
	KeyCurrentDraw       = "current_draw"

	KeyHeartRate      = "heart_rate_bpm"
	KeySpO2           = "spo2_pct"
	KeyThrottleVar    = "throttle_variance"
	KeySteeringOsc    = "steering_oscillation"
	KeyStintMinutes   = "elapsed_time_minutes"
	KeyLapTimeVar     = "lap_time_variance"
	KeyCabinTemp      = "cabin_temp"

	KeyLELPct         = "lel_sensor_pct"
	KeyH2TankPressure = "h2_tank_pressure"
	KeyFuelCellTemp   = "fuel_cell_temp"
	KeyH2FlowRate     = "h2_flow_rate"
	KeyTimeSincePurge = "time_since_purge"

	KeyGPSLat  = "gps_lat"
	KeyGPSLon  = "gps_lon"
	KeySpeed   = "speed"
	KeyHeading = "heading"

	KeyGPSSpeed       = "gps_speed"
	KeyWheelFront     = "wheel_speed_front"
	KeyWheelRear      = "wheel_speed_rear"
	KeyTirePressure   = "tire_pressure"
	KeyDecelRate      = "decel_rate"

	KeyThrottlePct = "throttle_pct"
	KeyMotorRPM    = "motor_rpm"

	KeyFleetEffMean = "fleet_efficiency_mean"
	KeyFleetEffStd  = "fleet_efficiency_std"
	KeyFleetSize    = "fleet_size"
	KeyOurEff       = "our_efficiency"

	KeyTimestamp = "timestamp"
)

// MinimumKeys are the channels every advisory cycle requires. A sample
// missing any of them triggers the fallback decision.
var MinimumKeys = []string{KeySocCurrent, KeySpeedAvg, KeyMotorTemp}

// TelemetrySample is one flat snapshot of vehicle channels. The zero value
// is usable; absent channels are simply not present in the map.
type TelemetrySample map[string]float64

// Get returns the channel value and whether it is present.
func (s TelemetrySample) Get(key string) (float64, bool) {
	v, ok := s[key]
	return v, ok
}

// Value returns the channel value, or 0 when absent.
func (s TelemetrySample) Value(key string) float64 { return s[key] }

// ValueOr returns the channel value, or def when absent.
func (s TelemetrySample) ValueOr(key string, def float64) float64 {
	if v, ok := s[key]; ok {
		return v
	}
	return def
}

// Has reports whether every given channel is present.
func (s TelemetrySample) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := s[k]; !ok {
			return false
		}
	}
	return true
}

// Missing returns the subset of keys absent from the sample.
func (s TelemetrySample) Missing(keys ...string) []string {
	var out []string
	for _, k := range keys {
		if _, ok := s[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// MissingMinimum returns the required channels this sample lacks.
func (s TelemetrySample) MissingMinimum() []string {
	return s.Missing(MinimumKeys...)
}

// Set stores a channel value and returns the sample for chaining.
func (s TelemetrySample) Set(key string, v float64) TelemetrySample {
	s[key] = v
	return s
}

// Clone returns a shallow copy of the sample.
func (s TelemetrySample) Clone() TelemetrySample {
	out := make(TelemetrySample, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge copies every channel from other into s, overwriting duplicates.
func (s TelemetrySample) Merge(other TelemetrySample) TelemetrySample {
	for k, v := range other {
		s[k] = v
	}
	return s
}

// Time returns the embedded timestamp channel as a time.Time, or the zero
// time when the channel is absent.
func (s TelemetrySample) Time() time.Time {
	v, ok := s[KeyTimestamp]
	if !ok {
		return time.Time{}
	}
	sec := int64(v)
	nsec := int64((v - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
