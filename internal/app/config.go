package app

import (
	"errors"
	"time"
)

// Config holds everything an App instance needs to run a task.
type Config struct {
	TaskPath string // .hcl file or directory
	Block    string // block to run; empty runs every block in order

	LogPath     string // sqlite log file; empty keeps records in memory
	FramePeriod time.Duration
	ListenAddr  string // websocket input endpoint; empty disables it
	Headless    bool   // suppress console presentation output

	LogFormat string
	LogLevel  string
}

// DefaultFramePeriod approximates a 60 Hz display.
const DefaultFramePeriod = 16670 * time.Microsecond

func NewConfig(cfg Config) (*Config, error) {
	if cfg.TaskPath == "" {
		return nil, errors.New("TaskPath is a required configuration field and cannot be empty")
	}
	if cfg.FramePeriod == 0 {
		cfg.FramePeriod = DefaultFramePeriod
	}
	if cfg.FramePeriod < 0 {
		return nil, errors.New("FramePeriod must be positive")
	}
	return &cfg, nil
}
