package kfconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KDFProfile != "production" {
		t.Errorf("KDFProfile = %q, want production", cfg.KDFProfile)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.KDFProfile = "fast"
	cfg.DataDir = "/custom/path"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.KDFProfile != "fast" || loaded.DataDir != "/custom/path" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadRejectsPermissiveMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for world-readable config file")
	}
}

func TestLoadRejectsFutureVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 999\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for future config version")
	}
}

func TestKDFParamsResolution(t *testing.T) {
	cfg := Default()
	if cfg.KDFParams().MemoryKiB != 65536 {
		t.Errorf("production profile MemoryKiB = %d, want 65536", cfg.KDFParams().MemoryKiB)
	}
	cfg.KDFProfile = "fast"
	if cfg.KDFParams().MemoryKiB == 65536 {
		t.Error("fast profile should not use production memory cost")
	}
}
