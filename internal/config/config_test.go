package config

import (
	"os"
	"path/filepath"
	"testing"

	"smc-trader/internal/analysis"
	apperrors "smc-trader/internal/errors"
)

func TestLoadCreatesTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Fatalf("expected template to be written: %v", err)
	}
	if cfg.Detection != analysis.DefaultSettings() {
		t.Errorf("expected default detection settings, got %+v", cfg.Detection)
	}

	// The written template must load back to the same detection settings.
	again, err := Load(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Detection != analysis.DefaultSettings() {
		t.Errorf("template settings differ from defaults: %+v", again.Detection)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `
[detection.structure]
swing_lookback = 3

[detection.signals]
stop_buffer = "zone"

[logging]
level = "debug"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SMC_MIN_CONFIDENCE", "70")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Detection.Structure.SwingLookback != 3 {
		t.Errorf("swing_lookback = %d, want 3", cfg.Detection.Structure.SwingLookback)
	}
	if cfg.Detection.Signals.StopBuffer != analysis.StopBufferZone {
		t.Errorf("stop_buffer = %q, want zone", cfg.Detection.Signals.StopBuffer)
	}
	if cfg.Detection.Signals.MinConfidence != 70 {
		t.Errorf("min_confidence = %d, want 70 from env", cfg.Detection.Signals.MinConfidence)
	}
	if cfg.Detection.FVG.MinGapPercent != 0.05 {
		t.Errorf("min_gap_percent = %v, want default 0.05", cfg.Detection.FVG.MinGapPercent)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg.Detection.Structure.SwingLookback = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero swing lookback")
	}

	cfg = Default()
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"confidence not an integer", "SMC_MIN_CONFIDENCE", "high"},
		{"confidence fraction", "SMC_MIN_CONFIDENCE", "85.5"},
		{"risk reward not a number", "SMC_MIN_RR", "3:1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(t.TempDir())
			if !apperrors.Is(err, apperrors.ErrConfigInvalid) {
				t.Fatalf("expected ErrConfigInvalid, got %v", err)
			}
			var verr *apperrors.ValidationError
			if !apperrors.As(err, &verr) || verr.Field != tt.key {
				t.Errorf("expected error naming %s, got %v", tt.key, err)
			}
		})
	}
}
