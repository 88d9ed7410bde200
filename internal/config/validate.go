package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateTimeouts()
}

func (c *Config) validatePaths() error {
	if c.Paths.StorageDir == "" {
		return errors.New("paths.storage_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if len(c.Ingest.AllowedExtensions) == 0 {
		return errors.New("ingest.allowed_extensions must list at least one extension")
	}
	if err := ensurePositiveMap(map[string]int{
		"ingest.max_duration_sec": c.Ingest.MaxDurationSec,
		"ingest.max_file_mb":      c.Ingest.MaxFileMB,
		"ingest.min_sample_rate":  c.Ingest.MinSampleRate,
		"ingest.max_sample_rate":  c.Ingest.MaxSampleRate,
	}); err != nil {
		return err
	}
	if c.Ingest.MaxSampleRate < c.Ingest.MinSampleRate {
		return errors.New("ingest.max_sample_rate must be at least ingest.min_sample_rate")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.stage_timeout":        c.Workflow.StageTimeout,
		"workflow.heartbeat_interval":   c.Workflow.HeartbeatInterval,
	})
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"separation.timeout_sec": c.Separation.TimeoutSec,
		"pitch.timeout_sec":      c.Pitch.TimeoutSec,
		"render.timeout_sec":     c.Render.TimeoutSec,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
