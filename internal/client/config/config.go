package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the microblog CLI.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	// StatePath is the sqlite file holding a remembered session. Empty
	// disables it.
	StatePath string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.StatePath = defaultStatePath()
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "microblog", "session.db")
}

// LoadConfig applies defaults, then JSON, then flags from os.Args.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()

	args := os.Args[1:]
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
