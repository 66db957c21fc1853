package config

import "sort"

// Presets are ready-made example systems, mostly the small plants the test
// suite exercises.
var Presets = map[string]*Config{
	"gain": {
		Name:   "gain",
		Period: 1,
		System: SystemConfig{D: []Matrix{{{2}}}},
	},
	"differencer": {
		Name:   "differencer",
		Period: 1,
		System: SystemConfig{
			A: []Matrix{{{0}}},
			B: []Matrix{{{1}}},
			C: []Matrix{{{-1}}},
			D: []Matrix{{{1}}},
		},
	},
	"held_differencer": {
		Name:   "held_differencer",
		Period: 1,
		System: SystemConfig{
			A: []Matrix{{{0}}},
			B: []Matrix{{{1}}},
			C: []Matrix{{{-1}}},
			D: []Matrix{{{1}}},
		},
		Disturbances: []DisturbanceConfig{
			{Name: "hold", Kind: "constant_window", Window: []int{0}},
		},
	},
	"uncertain_feedthrough": {
		Name:   "uncertain_feedthrough",
		Period: 1,
		System: SystemConfig{
			D: []Matrix{{
				{0, 1},
				{1, 0},
			}},
		},
		Uncertainties: []UncertaintyConfig{
			{Name: "unc", Kind: "slti", Dim: 1, Bound: 0.5},
		},
	},
	"alternating_gain": {
		Name:   "alternating_gain",
		Period: 2,
		System: SystemConfig{
			D: []Matrix{{{1}}, {{3}}},
		},
	},
}

func GetPreset(name string) *Config {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
