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
	c.normalizeSheet()
	if err := c.normalizeFetch(); err != nil {
		return err
	}
	c.normalizeAudit()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.CatalogDir, err = expandPath(c.Paths.CatalogDir); err != nil {
		return fmt.Errorf("paths.catalog_dir: %w", err)
	}
	if c.Paths.AssetsDir, err = expandPath(c.Paths.AssetsDir); err != nil {
		return fmt.Errorf("paths.assets_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ReportDir) == "" {
		c.Paths.ReportDir = defaultReportDir
	}
	if c.Paths.ReportDir, err = expandPath(c.Paths.ReportDir); err != nil {
		return fmt.Errorf("paths.report_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSheet() {
	c.Sheet.URL = strings.TrimSpace(c.Sheet.URL)
	if c.Sheet.URL == "" {
		if value, ok := os.LookupEnv("MATINEE_SHEET_URL"); ok {
			c.Sheet.URL = strings.TrimSpace(value)
		}
	}
	c.Sheet.TitleColumn = strings.TrimSpace(c.Sheet.TitleColumn)
	if c.Sheet.TitleColumn == "" {
		c.Sheet.TitleColumn = defaultSheetTitleColumn
	}
	if c.Sheet.RequestTimeout <= 0 {
		c.Sheet.RequestTimeout = defaultSheetTimeout
	}
}

func (c *Config) normalizeFetch() error {
	var err error
	if c.Fetch.Workers <= 0 {
		c.Fetch.Workers = defaultFetchWorkers
	}
	if c.Fetch.RetryAttempts <= 0 {
		c.Fetch.RetryAttempts = defaultFetchRetryAttempts
	}
	if c.Fetch.RetryDelaySeconds <= 0 {
		c.Fetch.RetryDelaySeconds = defaultFetchRetryDelay
	}
	if c.Fetch.MinCompleteMiB < 0 {
		c.Fetch.MinCompleteMiB = defaultMinCompleteMiB
	}
	if c.Fetch.RequestTimeout <= 0 {
		c.Fetch.RequestTimeout = defaultFetchTimeout
	}
	if c.Fetch.MaxHeight <= 0 {
		c.Fetch.MaxHeight = defaultMaxStreamHeight
	}
	if c.Fetch.StreamRetries < 0 {
		c.Fetch.StreamRetries = defaultStreamRetries
	}
	c.Fetch.CookieFile = strings.TrimSpace(c.Fetch.CookieFile)
	if c.Fetch.CookieFile == "" {
		if value, ok := os.LookupEnv("MATINEE_COOKIE_FILE"); ok {
			c.Fetch.CookieFile = strings.TrimSpace(value)
		}
	}
	if c.Fetch.CookieFile != "" {
		if c.Fetch.CookieFile, err = expandPath(c.Fetch.CookieFile); err != nil {
			return fmt.Errorf("fetch.cookie_file: %w", err)
		}
	}
	c.Fetch.CookiesFromBrowser = strings.TrimSpace(c.Fetch.CookiesFromBrowser)
	c.Fetch.VideoPasswordColumn = strings.TrimSpace(c.Fetch.VideoPasswordColumn)
	if c.Fetch.VideoPasswordColumn == "" {
		c.Fetch.VideoPasswordColumn = defaultVideoPasswordColumn
	}
	return nil
}

func (c *Config) normalizeAudit() {
	codecs := make([]string, 0, len(c.Audit.VideoCodecs))
	for _, codec := range c.Audit.VideoCodecs {
		if normalized := strings.ToLower(strings.TrimSpace(codec)); normalized != "" {
			codecs = append(codecs, normalized)
		}
	}
	if len(codecs) > 0 {
		c.Audit.VideoCodecs = codecs
	} else {
		c.Audit.VideoCodecs = Default().Audit.VideoCodecs
	}

	codecs = make([]string, 0, len(c.Audit.AudioCodecs))
	for _, codec := range c.Audit.AudioCodecs {
		if normalized := strings.ToLower(strings.TrimSpace(codec)); normalized != "" {
			codecs = append(codecs, normalized)
		}
	}
	if len(codecs) > 0 {
		c.Audit.AudioCodecs = codecs
	} else {
		c.Audit.AudioCodecs = Default().Audit.AudioCodecs
	}

	if len(c.Audit.AudioChannels) == 0 {
		c.Audit.AudioChannels = Default().Audit.AudioChannels
	}
	if len(c.Audit.AspectRatios) == 0 {
		c.Audit.AspectRatios = Default().Audit.AspectRatios
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("MATINEE_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
