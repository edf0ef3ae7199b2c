package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. A missing API key is not an
// error here; commands that talk to the model check for it when they build
// the analyzer.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	switch c.Notifications.MinIntensity {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("notifications.min_intensity must be low, medium, or high, got %q", c.Notifications.MinIntensity)
	}
	if topic := c.Notifications.NtfyTopic; topic != "" &&
		!strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if err := ensurePositiveMap(map[string]int{
		"llm.timeout_seconds": c.LLM.TimeoutSeconds,
		"llm.retry_attempts":  c.LLM.RetryAttempts,
	}); err != nil {
		return err
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if strings.TrimSpace(c.API.Bind) == "" {
		return errors.New("api.bind must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

// RequireAPIKey reports a descriptive error when no credential is configured.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.LLM.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("llm.api_key is required. Set GROQ_API_KEY env var or edit %s (create with 'civicrisk config init')", defaultPath)
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
