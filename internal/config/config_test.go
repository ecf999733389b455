package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBase != defaultAPIBase {
		t.Fatalf("APIBase = %q, want default", cfg.APIBase)
	}
	if cfg.PollSeconds != defaultPollSeconds {
		t.Fatalf("PollSeconds = %d, want %d", cfg.PollSeconds, defaultPollSeconds)
	}
	if !strings.HasPrefix(cfg.DataDir, home) {
		t.Fatalf("DataDir = %q, want under %q", cfg.DataDir, home)
	}
}

func TestLoad_ReadsExplicitFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	content := "api_base = \"http://127.0.0.1:9000\"\ndata_dir = \"" + tmp + "\"\npoll_seconds = 30\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBase != "http://127.0.0.1:9000" {
		t.Fatalf("APIBase = %q, want override", cfg.APIBase)
	}
	if cfg.PollSeconds != 30 {
		t.Fatalf("PollSeconds = %d, want 30", cfg.PollSeconds)
	}
	if cfg.StatePath() != filepath.Join(tmp, stateFileName) {
		t.Fatalf("StatePath = %q, want under data dir", cfg.StatePath())
	}
	if cfg.QueuePath() != filepath.Join(tmp, queueFileName) {
		t.Fatalf("QueuePath = %q, want under data dir", cfg.QueuePath())
	}
}

func TestLoad_InvalidTOMLIsAnError(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	if err := os.WriteFile(path, []byte("not toml {{{"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("Load accepted invalid TOML, want error")
	}
}

func TestLoad_ExpandsHomeInDataDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	if err := os.WriteFile(path, []byte("data_dir = \"~/trackbox-data\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DataDir != filepath.Join(home, "trackbox-data") {
		t.Fatalf("DataDir = %q, want expanded home path", cfg.DataDir)
	}
}
