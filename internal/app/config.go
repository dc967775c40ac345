package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"nonodojo/internal/catalog"
)

// Config controls runtime behavior. Values come from the environment,
// then flags override on top.
type Config struct {
	DataDir       string `env:"NONODOJO_DATA_DIR"`
	LogPath       string `env:"NONODOJO_LOG_PATH"`
	PacksDir      string `env:"NONODOJO_PACKS_DIR"`
	Difficulty    string `env:"NONODOJO_DIFFICULTY"`
	RetentionDays int    `env:"NONODOJO_RETENTION_DAYS" envDefault:"90"`
	ASCIIOnly     bool   `env:"NONODOJO_ASCII_ONLY"`
}

func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Difficulty != "" {
		if _, err := catalog.ParseDifficulty(c.Difficulty); err != nil {
			return err
		}
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("invalid retention days %d", c.RetentionDays)
	}
	if c.RetentionDays == 0 {
		c.RetentionDays = 90
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "nonodojo")
	}
	return nil
}
