package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CatalogDir) == "" {
		return errors.New("paths.catalog_dir must be set")
	}
	if strings.TrimSpace(c.Paths.AssetsDir) == "" {
		return errors.New("paths.assets_dir must be set")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.AssetThreshold <= 0 || c.Matching.AssetThreshold > 1 {
		return errors.New("matching.asset_threshold must be between 0 and 1")
	}
	if c.Matching.ListThreshold <= 0 || c.Matching.ListThreshold > 1 {
		return errors.New("matching.list_threshold must be between 0 and 1")
	}
	if c.Matching.ReviewFloor < 0 || c.Matching.ReviewFloor > 1 {
		return errors.New("matching.review_floor must be between 0 and 1")
	}
	if c.Matching.ReviewFloor > c.Matching.AssetThreshold {
		return errors.New("matching.review_floor must not exceed matching.asset_threshold")
	}
	if c.Matching.ReviewFloor > c.Matching.ListThreshold {
		return errors.New("matching.review_floor must not exceed matching.list_threshold")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if err := ensurePositiveMap(map[string]int{
		"fetch.workers":         c.Fetch.Workers,
		"fetch.retry_attempts":  c.Fetch.RetryAttempts,
		"fetch.request_timeout": c.Fetch.RequestTimeout,
		"fetch.max_height":      c.Fetch.MaxHeight,
		"sheet.request_timeout": c.Sheet.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Fetch.RetryDelaySeconds <= 0 {
		return errors.New("fetch.retry_delay_seconds must be positive")
	}
	if c.Fetch.MinCompleteMiB < 0 {
		return errors.New("fetch.min_complete_mib must be >= 0")
	}
	if c.Fetch.StreamRetries < 0 {
		return errors.New("fetch.stream_retries must be >= 0")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if c.Audit.TargetWidth <= 0 || c.Audit.TargetHeight <= 0 {
		return errors.New("audit.target_width and audit.target_height must be positive")
	}
	if c.Audit.AspectTolerance < 0 {
		return errors.New("audit.aspect_tolerance must be >= 0")
	}
	for _, ratio := range c.Audit.AspectRatios {
		if ratio <= 0 {
			return errors.New("audit.aspect_ratios entries must be positive")
		}
	}
	if len(c.Audit.VideoCodecs) == 0 {
		return errors.New("audit.video_codecs must include at least one codec")
	}
	if len(c.Audit.AudioCodecs) == 0 {
		return errors.New("audit.audio_codecs must include at least one codec")
	}
	for _, channels := range c.Audit.AudioChannels {
		if channels <= 0 {
			return errors.New("audit.audio_channels entries must be positive")
		}
	}
	ranges := []struct {
		name string
		min  float64
		max  float64
	}{
		{"video_mbps", c.Audit.MinVideoMbps, c.Audit.MaxVideoMbps},
		{"fps", c.Audit.MinFPS, c.Audit.MaxFPS},
		{"minutes", c.Audit.MinMinutes, c.Audit.MaxMinutes},
		{"gb", c.Audit.MinGB, c.Audit.MaxGB},
	}
	for _, r := range ranges {
		if r.min <= 0 {
			return fmt.Errorf("audit.min_%s must be positive", r.name)
		}
		if r.max < r.min {
			return fmt.Errorf("audit.max_%s must be >= audit.min_%s", r.name, r.name)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
