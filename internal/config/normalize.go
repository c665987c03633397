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
	c.normalizeAPI()
	c.normalizePolling()
	c.normalizeNotifications()
	c.normalizeHistoryLimits()
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
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	if env, ok := os.LookupEnv("PAPRI_API_BASE_URL"); ok && strings.TrimSpace(env) != "" {
		c.API.BaseURL = env
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultAPITimeout
	}
	if strings.TrimSpace(c.API.UserAgent) == "" {
		c.API.UserAgent = defaultUserAgent
	}
	if strings.TrimSpace(c.API.CSRFCookie) == "" {
		c.API.CSRFCookie = defaultCSRFCookie
	}
	if strings.TrimSpace(c.API.CSRFHeader) == "" {
		c.API.CSRFHeader = defaultCSRFHeader
	}
	if c.API.PageSize <= 0 {
		c.API.PageSize = defaultPageSize
	}
}

func (c *Config) normalizePolling() {
	if c.Polling.SearchIntervalMS <= 0 {
		c.Polling.SearchIntervalMS = defaultSearchIntervalMS
	}
	if c.Polling.EditIntervalMS <= 0 {
		c.Polling.EditIntervalMS = defaultEditIntervalMS
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	if c.Notifications.DisplaySeconds <= 0 {
		c.Notifications.DisplaySeconds = defaultDisplaySeconds
	}
}

func (c *Config) normalizeHistoryLimits() {
	if c.History.Keep <= 0 {
		c.History.Keep = defaultHistoryKeep
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
