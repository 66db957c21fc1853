package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Name != "gain" {
		t.Errorf("expected name gain, got %s", cfg.Name)
	}
	if _, err := cfg.Build(); err != nil {
		t.Errorf("default config should build: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.yaml")
	cfg := GetPreset("uncertain_feedthrough")

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Name != cfg.Name {
		t.Errorf("expected name %s, got %s", cfg.Name, loaded.Name)
	}
	if len(loaded.Uncertainties) != 1 || loaded.Uncertainties[0].Bound != 0.5 {
		t.Errorf("uncertainties did not survive the round trip: %+v", loaded.Uncertainties)
	}

	u, err := loaded.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(u.Deltas()) != 1 {
		t.Errorf("expected 1 delta, got %d", len(u.Deltas()))
	}
}

func TestAllPresetsBuild(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %s listed but missing", name)
		}
		if _, err := cfg.Build(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestBuildRejectsRaggedMatrix(t *testing.T) {
	cfg := &Config{
		Name:   "ragged",
		Period: 1,
		System: SystemConfig{D: []Matrix{{{1, 2}, {3}}}},
	}
	if _, err := cfg.Build(); err == nil {
		t.Error("ragged rows should be rejected")
	}
}

func TestBuildRejectsWrongStepCount(t *testing.T) {
	cfg := &Config{
		Name:   "short",
		Period: 3,
		System: SystemConfig{D: []Matrix{{{1}}, {{2}}}},
	}
	if _, err := cfg.Build(); err == nil {
		t.Error("two entries on a three-step grid should be rejected")
	}
}

func TestBuildRejectsUnknownKind(t *testing.T) {
	cfg := GetPreset("uncertain_feedthrough")
	bad := *cfg
	bad.Uncertainties = []UncertaintyConfig{{Name: "unc", Kind: "parametric", Dim: 1}}
	if _, err := bad.Build(); err == nil {
		t.Error("unknown uncertainty kind should be rejected")
	}
}
