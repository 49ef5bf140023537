package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.ProbeTimeout != 8*time.Second || cfg.MaxTextureSize != 2048 || !cfg.TypoTolerance {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skin.yaml")
	data := `asset_base_url: https://assets.example.com/cs2
probe_timeout: 3s
typo_tolerance: false
max_texture_size: 512
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SKIN_MAX_TEXTURE_SIZE", "1024")
	t.Setenv("SKIN_VERBOSE", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AssetBaseURL != "https://assets.example.com/cs2" {
		t.Errorf("base url %q", cfg.AssetBaseURL)
	}
	if cfg.ProbeTimeout != 3*time.Second {
		t.Errorf("probe timeout %s", cfg.ProbeTimeout)
	}
	if cfg.TypoTolerance {
		t.Error("typo tolerance should come from the file")
	}
	if cfg.MaxTextureSize != 1024 {
		t.Errorf("env should override file, got %d", cfg.MaxTextureSize)
	}
	if !cfg.Verbose {
		t.Error("verbose should come from env")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SKIN_PROBE_TIMEOUT", "soon")
	if _, err := Load(""); err == nil {
		t.Fatal("expected bad duration to fail")
	}

	t.Setenv("SKIN_PROBE_TIMEOUT", "-1s")
	if _, err := Load(""); err == nil {
		t.Fatal("expected negative timeout to fail")
	}
}
