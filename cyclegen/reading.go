package cyclegen

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

const (
	SensorCount  = 21
	SettingCount = 3
)

// Reading is one engine cycle as submitted to the cycles endpoint: three operational
// settings and 21 sensor channels.
type Reading struct {
	Cycle    int
	Settings [SettingCount]float64
	Sensors  [SensorCount]float64
}

// SensorKey returns the wire name of sensor i (0-based), e.g. "s1"
func SensorKey(i int) string {
	return "s" + strconv.Itoa(i+1)
}

// SettingKey returns the wire name of setting i (0-based), e.g. "setting1"
func SettingKey(i int) string {
	return "setting" + strconv.Itoa(i+1)
}

// Values flattens the reading into its wire keys, without the cycle number
func (r Reading) Values() map[string]float64 {
	vals := make(map[string]float64, SettingCount+SensorCount)
	for i, v := range r.Settings {
		vals[SettingKey(i)] = v
	}
	for i, v := range r.Sensors {
		vals[SensorKey(i)] = v
	}
	return vals
}

// FromValues builds a reading from wire keys. Missing keys default to zero, matching
// the API's behaviour.
func FromValues(cycle int, vals map[string]float64) Reading {
	r := Reading{Cycle: cycle}
	for i := range r.Settings {
		r.Settings[i] = vals[SettingKey(i)]
	}
	for i := range r.Sensors {
		r.Sensors[i] = vals[SensorKey(i)]
	}
	return r
}

func (r Reading) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, SettingCount+SensorCount+1)
	for k, v := range r.Values() {
		m[k] = v
	}
	m["cycle"] = r.Cycle
	return json.Marshal(m)
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	vals := make(map[string]float64, len(raw))
	cycle := 0
	for k, n := range raw {
		if k == "cycle" {
			c, err := n.Int64()
			if err != nil {
				return fmt.Errorf("cycle: %w", err)
			}
			cycle = int(c)
			continue
		}
		f, err := n.Float64()
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		vals[k] = f
	}
	*r = FromValues(cycle, vals)
	return nil
}

// apply runs f over every setting and sensor, returning a new reading
func (r Reading) apply(f func(key string, v float64) float64) Reading {
	out := r
	for i, v := range r.Settings {
		out.Settings[i] = f(SettingKey(i), v)
	}
	for i, v := range r.Sensors {
		out.Sensors[i] = f(SensorKey(i), v)
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
