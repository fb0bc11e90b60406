package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvListen         = "ORRERY_LISTEN"
	EnvDataDir        = "ORRERY_DATA"
	EnvInterval       = "ORRERY_INTERVAL"
	EnvBarrierTimeout = "ORRERY_BARRIER_TIMEOUT"
)

// ApplyEnv loads the given dotenv files (".env" when none are named),
// ignoring missing ones, and overlays ORRERY_* variables onto c. Variables
// already set in the process environment win over the files.
func ApplyEnv(c *Config, files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load env: %w", err)
	}

	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvInterval, err)
		}
		c.Interval = Duration{d}
	}
	if v := os.Getenv(EnvBarrierTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvBarrierTimeout, err)
		}
		c.BarrierTimeout = Duration{d}
	}
	return nil
}
