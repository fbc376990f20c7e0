package config

import (
	"path/filepath"
	"testing"
)

func TestLoadFallsBackToDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("expected a missing config file to be a non-error, got %v", err)
	}
	if cfg.TotalSupply != Defaults().TotalSupply {
		t.Fatalf("expected default total supply, got %d", cfg.TotalSupply)
	}
}

func TestWriteExampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aicity.yaml")
	want := Defaults()
	want.HTTPAddr = ":9090"

	if err := WriteExample(path, want); err != nil {
		t.Fatalf("write example: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load written example: %v", err)
	}
	if got.HTTPAddr != ":9090" {
		t.Fatalf("expected HTTPAddr to round-trip through the written file, got %s", got.HTTPAddr)
	}
}
