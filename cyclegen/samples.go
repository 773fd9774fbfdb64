package cyclegen

// Default returns the form's starting values for a new cycle
func Default() Reading {
	return Reading{
		Cycle:    1,
		Settings: [SettingCount]float64{0.0, 0.0, 100.0},
		Sensors: [SensorCount]float64{
			518.67, 642.0, 1580.0, 1400.0, 14.62, 21.61, 554.0, 2388.0, 9050.0, 1.3,
			47.5, 522.0, 2388.0, 8130.0, 8.4, 0.03, 392, 2388, 100.0, 39.0,
			23.4,
		},
	}
}

// Sample is a named reference reading
type Sample struct {
	Name    string
	Reading Reading
}

// Samples returns reference readings for a healthy, a mid-life and a degraded engine
func Samples() []Sample {
	return []Sample{
		{
			Name: "Normal Operation",
			Reading: Reading{
				Cycle:    1,
				Settings: [SettingCount]float64{0.0023, 0.0003, 100.0},
				Sensors: [SensorCount]float64{
					518.67, 643.02, 1585.29, 1398.21, 14.62, 21.61, 553.90, 2388.04, 9050.17, 1.30,
					47.20, 521.72, 2388.03, 8125.55, 8.4052, 0.03, 392, 2388, 100.00, 38.86,
					23.3735,
				},
			},
		},
		{
			Name: "Mid-Life Operation",
			Reading: Reading{
				Cycle:    2,
				Settings: [SettingCount]float64{-0.0027, -0.0003, 100.0},
				Sensors: [SensorCount]float64{
					518.67, 641.71, 1588.45, 1395.42, 14.62, 21.61, 554.85, 2388.01, 9054.42, 1.30,
					47.50, 522.16, 2388.06, 8139.62, 8.3803, 0.03, 393, 2388, 100.00, 39.02,
					23.3916,
				},
			},
		},
		{
			Name: "Degraded Performance",
			Reading: Reading{
				Cycle:    3,
				Settings: [SettingCount]float64{0.0042, 0.0000, 100.0},
				// lower fan speed (s2), higher EGT (s4), higher vibration (s9, s14)
				Sensors: [SensorCount]float64{
					518.67, 639.44, 1584.12, 1411.42, 14.92, 21.81, 556.07, 2388.03, 9060.29, 1.32,
					47.28, 520.38, 2388.05, 8142.90, 8.2917, 0.033, 395, 2388, 100.00, 39.50,
					23.6737,
				},
			},
		},
	}
}

// SampleByName looks a sample up by its display name
func SampleByName(name string) (Sample, bool) {
	for _, s := range Samples() {
		if s.Name == name {
			return s, true
		}
	}
	return Sample{}, false
}
