package config

const (
	defaultDataDir             = "~/.local/share/aura"
	defaultLogDir              = "~/.local/share/aura/logs"
	defaultOutputDir           = "~/.local/share/aura/outputs"
	defaultImageSize           = 512
	defaultConfidenceThreshold = 0.5
	defaultRouterModel         = "RRG"
	defaultReasoningTimeout    = 30
	defaultReasoningRetries    = 3
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
		},
		Pipeline: Pipeline{
			EnableReasoning:  true,
			EnableValidation: true,
		},
		Segmentation: Segmentation{
			ImageSize:           defaultImageSize,
			ConfidenceThreshold: defaultConfidenceThreshold,
		},
		Router: Router{
			DefaultModel: defaultRouterModel,
		},
		Reasoning: Reasoning{
			TimeoutSeconds: defaultReasoningTimeout,
			RetryAttempts:  defaultReasoningRetries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
