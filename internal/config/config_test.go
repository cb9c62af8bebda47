package config

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
	if cfg != Default() {
		t.Fatalf("Load with missing file: got %+v, want %+v", cfg, Default())
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kvengined.yaml")
	contents := "data_path: /var/lib/kvengine/data.db\ncompact_threshold: 2048\nlisten_addr: 127.0.0.1:9090\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataPath != "/var/lib/kvengine/data.db" {
		t.Errorf("DataPath: got %q", cfg.DataPath)
	}
	if cfg.CompactThreshold != 2048 {
		t.Errorf("CompactThreshold: got %d", cfg.CompactThreshold)
	}
	if cfg.ListenAddr != "127.0.0.1:9090" {
		t.Errorf("ListenAddr: got %q", cfg.ListenAddr)
	}
}
