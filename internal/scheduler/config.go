package scheduler

import "time"

// Config controls sweep intervals and retention windows.
type Config struct {
	RunInterval        time.Duration
	HeartbeatRetention time.Duration
	PageViewRetention  time.Duration
	BatchSize          int
}

func DefaultConfig() Config {
	return Config{
		RunInterval:        5 * time.Minute,
		HeartbeatRetention: 90 * 24 * time.Hour,
		PageViewRetention:  180 * 24 * time.Hour,
		BatchSize:          500,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.HeartbeatRetention <= 0 {
		c.HeartbeatRetention = defaults.HeartbeatRetention
	}
	if c.PageViewRetention <= 0 {
		c.PageViewRetention = defaults.PageViewRetention
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	return c
}
