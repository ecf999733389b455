package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings trackbox reads at startup.
type Config struct {
	APIBase     string
	DataDir     string
	PollSeconds int
}

const (
	defaultConfigPath  = "~/.config/trackbox/config.toml"
	defaultAPIBase     = "https://tracking-api-b4jb.onrender.com"
	defaultDataDir     = "~/.local/share/trackbox"
	defaultPollSeconds = 15

	stateFileName = "tracking_app_state.json"
	queueFileName = "offline_queue.json"
)

// Load locates and parses the trackbox config, falling back to defaults
// when the file is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{APIBase: defaultAPIBase, DataDir: defaultDataDir, PollSeconds: defaultPollSeconds}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.DataDir = mustExpand(cfg.DataDir)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase     string `toml:"api_base"`
		DataDir     string `toml:"data_dir"`
		PollSeconds int    `toml:"poll_seconds"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if base := strings.TrimSpace(raw.APIBase); base != "" {
		cfg.APIBase = base
	}
	if dir := strings.TrimSpace(raw.DataDir); dir != "" {
		cfg.DataDir = dir
	}
	if raw.PollSeconds > 0 {
		cfg.PollSeconds = raw.PollSeconds
	}
	cfg.DataDir = mustExpand(cfg.DataDir)

	return cfg, nil
}

// StatePath returns the path of the durable credential/identity record.
func (c Config) StatePath() string {
	return filepath.Join(c.DataDir, stateFileName)
}

// QueuePath returns the path of the durable offline queue.
func (c Config) QueuePath() string {
	return filepath.Join(c.DataDir, queueFileName)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
