package config

const (
	defaultConfigPath     = "~/.config/civicrisk/config.toml"
	projectConfigName     = "civicrisk.toml"
	defaultDataDir        = "~/.local/share/civicrisk"
	defaultLogDir         = "~/.local/share/civicrisk/logs"
	defaultLLMBaseURL     = "https://api.groq.com/openai/v1/chat/completions"
	defaultLLMModel       = "llama-3.3-70b-versatile"
	defaultLLMTemperature = 0
	defaultLLMTimeout     = 60
	defaultLLMRetries     = 1
	defaultAPIBind        = "127.0.0.1:7489"
	defaultNtfyTimeout    = 10
	defaultMinIntensity   = "high"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	historyFileName       = "history.db"
	lockFileName          = "civicrisk.lock"
	logFileName           = "civicrisk.log"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Temperature:    defaultLLMTemperature,
			TimeoutSeconds: defaultLLMTimeout,
			RetryAttempts:  defaultLLMRetries,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		History: History{
			Enabled: true,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			MinIntensity:   defaultMinIntensity,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
