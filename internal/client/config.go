package client

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/nirmitsaini1024/tgrab/internal/models"
	"github.com/nirmitsaini1024/tgrab/internal/transport"
)

// Config is the client's persisted state: where the server lives, the
// application credentials, and the bearer token of the last completed
// login.
type Config struct {
	ServerURL string          `json:"server_url"`
	APIID     int             `json:"api_id,omitempty"`
	APIHash   string          `json:"api_hash,omitempty"`
	Phone     string          `json:"phone,omitempty"`
	Token     string          `json:"token,omitempty"`
	User      models.Identity `json:"user,omitempty"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{ServerURL: transport.DefaultServerURL}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = transport.DefaultServerURL
	}
	return &cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "tgrab", "config.json"), nil
}
