package ui

import "testing"

func TestResolvePresetAppliesOverrides(t *testing.T) {
	cfg, err := ResolvePreset("nord", ThemeConfig{Error: "#ff0000"})
	if err != nil {
		t.Fatalf("ResolvePreset failed: %v", err)
	}
	if cfg.Primary != "#88c0d0" {
		t.Errorf("expected nord primary, got %q", cfg.Primary)
	}
	if cfg.Error != "#ff0000" {
		t.Errorf("expected override to win, got %q", cfg.Error)
	}
}

func TestResolvePresetEmptyName(t *testing.T) {
	cfg, err := ResolvePreset("", ThemeConfig{Muted: "240"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != (ThemeConfig{Muted: "240"}) {
		t.Errorf("expected overrides only, got %+v", cfg)
	}
}

func TestResolvePresetUnknown(t *testing.T) {
	if _, err := ResolvePreset("neon", ThemeConfig{}); err == nil {
		t.Error("expected error for unknown preset")
	}
	if len(PresetNames()) != len(presets) {
		t.Error("PresetNames should list every preset")
	}
}
