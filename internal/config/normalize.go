package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSegmentation()
	c.normalizeRouter()
	c.normalizeReasoning()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Segmentation.ModelPath != "" {
		if c.Segmentation.ModelPath, err = expandPath(c.Segmentation.ModelPath); err != nil {
			return fmt.Errorf("segmentation.model_path: %w", err)
		}
	}
	if c.Report.ModelPath != "" {
		if c.Report.ModelPath, err = expandPath(c.Report.ModelPath); err != nil {
			return fmt.Errorf("report.model_path: %w", err)
		}
	}
	if c.Validation.KnowledgeDir != "" {
		if c.Validation.KnowledgeDir, err = expandPath(c.Validation.KnowledgeDir); err != nil {
			return fmt.Errorf("validation.knowledge_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeSegmentation() {
	if c.Segmentation.ImageSize == 0 {
		c.Segmentation.ImageSize = defaultImageSize
	}
}

func (c *Config) normalizeRouter() {
	c.Router.DefaultModel = strings.TrimSpace(c.Router.DefaultModel)
	if c.Router.DefaultModel == "" {
		c.Router.DefaultModel = defaultRouterModel
	}
}

// normalizeReasoning applies environment fallbacks so credentials never need
// to live in the config file.
func (c *Config) normalizeReasoning() {
	c.Reasoning.APIURL = strings.TrimSpace(c.Reasoning.APIURL)
	if c.Reasoning.APIURL == "" {
		c.Reasoning.APIURL = strings.TrimSpace(os.Getenv("AURA_REASONING_URL"))
	}
	c.Reasoning.APIKey = strings.TrimSpace(c.Reasoning.APIKey)
	if c.Reasoning.APIKey == "" {
		c.Reasoning.APIKey = strings.TrimSpace(os.Getenv("AURA_REASONING_API_KEY"))
	}
	if c.Reasoning.TimeoutSeconds == 0 {
		c.Reasoning.TimeoutSeconds = defaultReasoningTimeout
	}
	if c.Reasoning.RetryAttempts == 0 {
		c.Reasoning.RetryAttempts = defaultReasoningRetries
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
