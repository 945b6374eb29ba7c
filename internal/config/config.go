// Package config loads handtracker settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the runtime configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"ADDR" envDefault:":8080"`

	// CameraID selects the capture device.
	CameraID int `env:"CAMERA_ID" envDefault:"0"`

	// CameraWidth and CameraHeight are the requested capture size. The
	// overlay canvas matches it.
	CameraWidth  int `env:"CAMERA_WIDTH" envDefault:"640"`
	CameraHeight int `env:"CAMERA_HEIGHT" envDefault:"480"`

	// FPS is the frame loop rate.
	FPS int `env:"FPS" envDefault:"15"`

	// StaticDir serves a web page alongside the API when set.
	StaticDir string `env:"STATIC_DIR"`

	// DataDir holds the settings database. Defaults to ~/.handtracker.
	DataDir string `env:"DATA_DIR"`

	MediaPipeScript string `env:"MEDIAPIPE_SCRIPT"`
	Python          string `env:"PYTHON"`

	// Tray shows a system tray icon for toggling tracking.
	Tray bool `env:"TRAY" envDefault:"false"`

	// Mirror flips the overlay stream horizontally unless a stored preference says otherwise.
	Mirror bool `env:"MIRROR" envDefault:"false"`
}

// Prefix is prepended to every environment variable name.
const Prefix = "HANDTRACKER_"

// Load reads an optional .env file from the working directory and parses the
// environment into a Config. Variables already set take precedence over the file.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".handtracker")
	}

	if cfg.FPS <= 0 {
		return nil, fmt.Errorf("%sFPS must be positive, got %d", Prefix, cfg.FPS)
	}

	if cfg.CameraWidth <= 0 || cfg.CameraHeight <= 0 {
		return nil, fmt.Errorf("%sCAMERA_WIDTH and %sCAMERA_HEIGHT must be positive, got %dx%d",
			Prefix, Prefix, cfg.CameraWidth, cfg.CameraHeight)
	}

	return cfg, nil
}

// DBPath returns the settings database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "handtracker.db")
}
