package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"civicrisk/internal/config"
	"civicrisk/internal/history"
	"civicrisk/internal/logging"
	"civicrisk/internal/metrics"
	"civicrisk/internal/notifications"
	"civicrisk/internal/risk"
	"civicrisk/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	stderr       io.Writer

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	metrics  *metrics.Metrics
	provider *risk.Provider
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	c := &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		stderr:       os.Stderr,
		metrics:      metrics.New(),
	}
	c.provider = risk.NewProvider(c.buildAnalyzer)
	return c
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		level := cfg.Logging.Level
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			level = *c.logLevelFlag
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:    level,
			Format:   cfg.Logging.Format,
			Output:   c.stderr,
			FilePath: cfg.LogFilePath(),
		})
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) buildAnalyzer() (*risk.Analyzer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return risk.NewFromConfig(cfg, logger, risk.WithRecorder(c.metrics))
}

// analyzer returns the process-wide analyzer, building it on first use.
func (c *commandContext) analyzer() (*risk.Analyzer, error) {
	return c.provider.Get()
}

func (c *commandContext) notifier() (notifications.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return notifications.NewService(cfg), nil
}

// notify sends a risk alert, logging rather than returning failures.
func (c *commandContext) notify(ctx context.Context, svc notifications.Service, text string, result risk.Classification) {
	if svc == nil {
		return
	}
	if err := svc.NotifyRisk(ctx, text, result); err != nil {
		logger, _ := c.ensureLogger()
		logging.WarnWithContext(logging.WithContext(ctx, logger), "risk notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no alert sent for this complaint"),
		)
	}
}

// openStore returns nil when history is disabled or skip is set.
func (c *commandContext) openStore(skip bool) (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if skip || !cfg.History.Enabled {
		return nil, nil
	}
	return history.Open(cfg)
}

func (c *commandContext) withStore(fn func(*history.Store) error) error {
	store, err := c.openStore(false)
	if err != nil {
		return err
	}
	if store == nil {
		return errHistoryDisabled
	}
	defer store.Close()
	return fn(store)
}

// commandRequestContext tags cmd's context with a fresh request id and source.
func commandRequestContext(cmd *cobra.Command, source string) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithRequestID(ctx, uuid.NewString())
	return services.WithSource(ctx, source)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
