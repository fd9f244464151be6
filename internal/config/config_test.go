package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DBPath == "" {
		t.Error("DBPath default is empty")
	}
	if cfg.SessionLogsDir == "" {
		t.Error("SessionLogsDir default is empty")
	}
	if !cfg.ContentIndex {
		t.Error("ContentIndex should default to enabled")
	}
	if cfg.DashboardAddr == "" {
		t.Error("DashboardAddr default is empty")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HSYNC_DB_PATH", "/custom/coordination.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DBPath != "/custom/coordination.db" {
		t.Errorf("DBPath = %q, want env override", cfg.DBPath)
	}
}
