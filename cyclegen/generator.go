package cyclegen

import (
	"fmt"
	"math"
)

// Trend is how a channel drifts as an engine wears
type Trend int

const (
	TrendNone Trend = iota
	TrendIncreasing
	TrendDecreasing
	TrendStable
)

var sensorTrends = map[string]Trend{
	"s1": TrendIncreasing, "s4": TrendIncreasing, "s5": TrendIncreasing, "s7": TrendIncreasing,
	"s9": TrendIncreasing, "s14": TrendIncreasing, "s16": TrendIncreasing, "s20": TrendIncreasing,
	"s21": TrendIncreasing,

	"s2": TrendDecreasing, "s3": TrendDecreasing, "s12": TrendDecreasing, "s15": TrendDecreasing,

	"s6": TrendStable, "s8": TrendStable, "s10": TrendStable, "s11": TrendStable,
	"s13": TrendStable, "s17": TrendStable, "s18": TrendStable, "s19": TrendStable,
}

// TrendOf returns the drift pattern for a wire key. Settings have no trend.
func TrendOf(key string) Trend {
	return sensorTrends[key]
}

// Mode selects how fast a generated batch degrades
type Mode string

const (
	ModeNormal      Mode = "normal"
	ModeAccelerated Mode = "accelerated"
	ModeFailure     Mode = "failure"
)

// Rates are per-cycle drift fractions
type Rates struct {
	Increasing float64
	Decreasing float64
	Stable     float64
}

var modeRates = map[Mode]Rates{
	ModeNormal:      {Increasing: 0.0002, Decreasing: 0.0002, Stable: 0.0001},
	ModeAccelerated: {Increasing: 0.001, Decreasing: 0.001, Stable: 0.0002},
	ModeFailure:     {Increasing: 0.005, Decreasing: 0.005, Stable: 0.0005},
}

func Modes() []Mode {
	return []Mode{ModeNormal, ModeAccelerated, ModeFailure}
}

func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if _, ok := modeRates[m]; !ok {
		return "", fmt.Errorf("unknown degradation mode %q", s)
	}
	return m, nil
}

func (m Mode) Rates() Rates {
	return modeRates[m]
}

const (
	accelerationStart  = 0.85
	accelerationFactor = 2.5
	spikeChance        = 0.05
	trendNoise         = 0.005
	settingNoise       = 0.00025
	randomizeSpread    = 0.03
)

// Rand is the random source; *math/rand/v2.Rand satisfies it
type Rand interface {
	Float64() float64
}

// Degrade derives the reading at position index of a count-long batch from the
// previous reading. Trending sensors move by rate*index, with the rate multiplied by
// 2.5 over the last 15% of the batch, an occasional 2% spike or dip and a little noise.
// Values are rounded to four decimals.
func Degrade(prev Reading, index, count int, mode Mode, rng Rand) Reading {
	rates := mode.Rates()
	accelerating := index > int(math.Floor(float64(count)*accelerationStart))
	step := float64(index)

	return prev.apply(func(key string, v float64) float64 {
		factor := 1.0
		noise := 0.0

		switch TrendOf(key) {
		case TrendIncreasing:
			rate := rates.Increasing
			if accelerating {
				rate *= accelerationFactor
			}
			factor = 1 + rate*step
			if rng.Float64() < spikeChance {
				factor *= 1.02
			}
			noise = rng.Float64()*2*trendNoise - trendNoise
		case TrendDecreasing:
			rate := rates.Decreasing
			if accelerating {
				rate *= accelerationFactor
			}
			factor = 1 - rate*step
			if rng.Float64() < spikeChance {
				factor *= 0.98
			}
			noise = rng.Float64()*2*trendNoise - trendNoise
		case TrendStable:
			noise = rng.Float64()*2*rates.Stable - rates.Stable
		default:
			noise = rng.Float64()*2*settingNoise - settingNoise
		}

		return round4(v * (factor + noise))
	})
}

// Batch generates count consecutive cycles numbered from start. The first is base
// itself, every following cycle degrades the one before it.
func Batch(base Reading, start, count int, mode Mode, rng Rand) []Reading {
	if count <= 0 {
		return nil
	}
	out := make([]Reading, 0, count)
	cur := base
	cur.Cycle = start
	out = append(out, cur)
	for i := 1; i < count; i++ {
		cur = Degrade(cur, i, count, mode, rng)
		cur.Cycle = start + i
		out = append(out, cur)
	}
	return out
}

// Randomize scales every value by a random factor within ±3%
func Randomize(r Reading, rng Rand) Reading {
	return r.apply(func(_ string, v float64) float64 {
		return round4(v * (1 - randomizeSpread + rng.Float64()*2*randomizeSpread))
	})
}
