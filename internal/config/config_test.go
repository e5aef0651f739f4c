package config

import (
	"testing"
)

func TestNewConfig(t *testing.T) {
	t.Setenv("DB_CONN", "host=db")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("SWEEP_SCHEDULE", "@every 5m")
	t.Setenv("TIMEZONE", "Europe/Moscow")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	if cfg.Port != "9090" || cfg.SweepSchedule != "@every 5m" {
		t.Errorf("got port=%s schedule=%s", cfg.Port, cfg.SweepSchedule)
	}
	if cfg.Location == nil || cfg.Location.String() != "Europe/Moscow" {
		t.Errorf("location got=%v want=Europe/Moscow", cfg.Location)
	}
}

func TestNewConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"empty db", map[string]string{"DB_CONN": ""}},
		{"empty jwt secret", map[string]string{"JWT_SECRET": ""}},
		{"bad schedule", map[string]string{"SWEEP_SCHEDULE": "every minute"}},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_CONN", "host=db")
			t.Setenv("JWT_SECRET", "s3cret")
			t.Setenv("SWEEP_SCHEDULE", "@every 1m")
			t.Setenv("TIMEZONE", "UTC")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := NewConfig(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
