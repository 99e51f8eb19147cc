package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSegmentation(); err != nil {
		return err
	}
	if err := c.validateRouter(); err != nil {
		return err
	}
	if err := c.validateReasoning(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSegmentation() error {
	if c.Segmentation.ConfidenceThreshold < 0 || c.Segmentation.ConfidenceThreshold > 1 {
		return errors.New("segmentation.confidence_threshold must be between 0 and 1")
	}
	if c.Segmentation.ImageSize <= 0 {
		return errors.New("segmentation.image_size must be positive")
	}
	return nil
}

func (c *Config) validateRouter() error {
	if c.Router.DefaultModel == "" {
		return errors.New("router.default_model must be set")
	}
	return nil
}

func (c *Config) validateReasoning() error {
	if c.Reasoning.TimeoutSeconds <= 0 {
		return errors.New("reasoning.timeout_seconds must be positive")
	}
	if c.Reasoning.RetryAttempts <= 0 {
		return errors.New("reasoning.retry_attempts must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
