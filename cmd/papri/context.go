package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"papri/internal/api"
	"papri/internal/config"
	"papri/internal/history"
	"papri/internal/logging"
	"papri/internal/notifications"
	"papri/internal/tasks"
)

type commandContext struct {
	configFlag   *string
	jsonFlag     *bool
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	clientOnce sync.Once
	client     *api.Client
	clientErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		jsonFlag:     jsonFlag,
		logLevelFlag: logLevelFlag,
	}
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
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) apiClient() (*api.Client, error) {
	c.clientOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.clientErr = err
			return
		}
		logger, err := c.ensureLogger()
		if err != nil {
			c.clientErr = err
			return
		}
		client, err := api.New(cfg, api.WithLogger(logger))
		if err != nil {
			c.clientErr = err
			return
		}
		c.client = client
	})
	return c.client, c.clientErr
}

// newSink builds the notification slot for a watch session. The change
// callback receives slot transitions for rendering.
func (c *commandContext) newSink(onChange func(notifications.Notice, bool)) (*notifications.Sink, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	display := time.Duration(cfg.Notifications.DisplaySeconds) * time.Second
	opts := []notifications.SinkOption{
		notifications.WithForwarder(notifications.NewForwarder(cfg)),
		notifications.WithLogger(logger),
	}
	if onChange != nil {
		opts = append(opts, notifications.WithOnChange(onChange))
	}
	return notifications.NewSink(display, opts...), nil
}

func (c *commandContext) newController(notifier tasks.Notifier) (*tasks.Controller, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := c.apiClient()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return tasks.NewController(tasks.Deps{
		Search:         client,
		Edits:          client,
		Status:         client,
		Results:        client,
		Notifier:       notifier,
		Logger:         logger,
		SearchInterval: time.Duration(cfg.Polling.SearchIntervalMS) * time.Millisecond,
		EditInterval:   time.Duration(cfg.Polling.EditIntervalMS) * time.Millisecond,
	}), nil
}

// historyStore opens the local history database, or returns nil when
// history is disabled.
func (c *commandContext) historyStore() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.Open(cfg)
}

// optionalHistoryStore opens the history database if it can. A store that
// cannot be opened, typically because another papri process holds the lock,
// is logged and skipped: history is a convenience and must never sink a
// task that has already been submitted.
func (c *commandContext) optionalHistoryStore() *history.Store {
	store, err := c.historyStore()
	if err != nil {
		if logger, lerr := c.ensureLogger(); lerr == nil {
			logger.Warn("history unavailable, continuing without it", "error", err)
		}
		return nil
	}
	return store
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
