package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestLoadMissingFieldsKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transition.yaml")
	if err := os.WriteFile(path, []byte("max_throttle: 0.9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxThrottle != 0.9 {
		t.Errorf("expected overridden max_throttle 0.9, got %v", cfg.MaxThrottle)
	}
	if cfg.InitialTakeoffHeight != 3.0 {
		t.Errorf("expected default initial_takeoff_height 3.0, got %v", cfg.InitialTakeoffHeight)
	}
	if cfg.CycleInterval.Seconds() != 0.1 {
		t.Errorf("expected resolved cycle_interval 0.1s, got %v", cfg.CycleInterval)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/transition.yaml")
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestLoadTypeMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transition.yaml")
	if err := os.WriteFile(path, []byte("max_throttle: \"not-a-number\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for type mismatch, got %v", err)
	}
}

func TestLoadUnknownFieldsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transition.yaml")
	if err := os.WriteFile(path, []byte("some_future_field: true\nmax_throttle: 0.7\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxThrottle != 0.7 {
		t.Errorf("expected max_throttle 0.7, got %v", cfg.MaxThrottle)
	}
}

func TestValidateRejectsBadCycleInterval(t *testing.T) {
	cfg := Default()
	cfg.CycleIntervalSeconds = 1.0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for out-of-range cycle_interval")
	}
}

func TestValidateRejectsUnknownPostAction(t *testing.T) {
	cfg := Default()
	cfg.PostTransitionAction = "do_a_barrel_roll"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown post_transition_action")
	}
}

func TestEffectiveYaw(t *testing.T) {
	cfg := Default()
	cfg.TransitionYawAngle = LaunchYawSentinel
	if got := cfg.EffectiveYaw(42.5); got != 42.5 {
		t.Errorf("sentinel should resolve to launch yaw, got %v", got)
	}

	cfg.TransitionYawAngle = 90.0
	if got := cfg.EffectiveYaw(42.5); got != 90.0 {
		t.Errorf("explicit yaw should override launch yaw, got %v", got)
	}
}
