package client

import (
	"path/filepath"
	"testing"

	"github.com/nirmitsaini1024/tgrab/internal/models"
)

func TestConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	// Loading a missing file yields defaults.
	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ServerURL == "" {
		t.Error("Expected default server URL")
	}

	cfg.ServerURL = "http://example.com:8000"
	cfg.APIID = 12345
	cfg.APIHash = "hash"
	cfg.Phone = "+15550100"
	cfg.Token = "tok"
	cfg.User = models.Identity{ID: 42, Username: "tester"}

	if err := SaveConfig(configPath, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig existing failed: %v", err)
	}
	if loaded.ServerURL != "http://example.com:8000" {
		t.Errorf("Expected server URL round-tripped, got %s", loaded.ServerURL)
	}
	if loaded.Token != "tok" || loaded.APIID != 12345 || loaded.Phone != "+15550100" {
		t.Errorf("Config fields lost: %+v", loaded)
	}
	if loaded.User.Username != "tester" {
		t.Errorf("Expected user tester, got %+v", loaded.User)
	}
}

func TestSaveConfigCreatesDir(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "dir", "config.json")
	if err := SaveConfig(configPath, &Config{ServerURL: "http://x"}); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := LoadConfig(configPath)
	if err != nil || loaded.ServerURL != "http://x" {
		t.Errorf("Roundtrip through nested dir failed: %v %+v", err, loaded)
	}
}
