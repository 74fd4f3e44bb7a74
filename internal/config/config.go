package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories matinee reads from and writes into.
type Paths struct {
	CatalogDir string `toml:"catalog_dir"`
	AssetsDir  string `toml:"assets_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
	ReportDir  string `toml:"report_dir"`
}

// Sheet contains configuration for the submissions spreadsheet.
type Sheet struct {
	URL            string `toml:"url"`
	TitleColumn    string `toml:"title_column"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Matching contains the similarity thresholds for title reconciliation.
type Matching struct {
	AssetThreshold float64 `toml:"asset_threshold"`
	ListThreshold  float64 `toml:"list_threshold"`
	ReviewFloor    float64 `toml:"review_floor"`
}

// Fetch contains configuration for the concurrent asset fetcher.
type Fetch struct {
	Workers             int     `toml:"workers"`
	RetryAttempts       int     `toml:"retry_attempts"`
	RetryDelaySeconds   float64 `toml:"retry_delay_seconds"`
	MinCompleteMiB      int64   `toml:"min_complete_mib"`
	RequestTimeout      int     `toml:"request_timeout"`
	MaxHeight           int     `toml:"max_height"`
	StreamRetries       int     `toml:"stream_retries"`
	CookieFile          string  `toml:"cookie_file"`
	CookiesFromBrowser  string  `toml:"cookies_from_browser"`
	VideoPasswordColumn string  `toml:"video_password_column"`
}

// Audit contains the technical delivery thresholds screeners are checked
// against.
type Audit struct {
	TargetWidth     int       `toml:"target_width"`
	TargetHeight    int       `toml:"target_height"`
	AspectRatios    []float64 `toml:"aspect_ratios"`
	AspectTolerance float64   `toml:"aspect_tolerance"`
	VideoCodecs     []string  `toml:"video_codecs"`
	AudioCodecs     []string  `toml:"audio_codecs"`
	AudioChannels   []int     `toml:"audio_channels"`
	MinVideoMbps    float64   `toml:"min_video_mbps"`
	MaxVideoMbps    float64   `toml:"max_video_mbps"`
	MinFPS          float64   `toml:"min_fps"`
	MaxFPS          float64   `toml:"max_fps"`
	MinMinutes      float64   `toml:"min_minutes"`
	MaxMinutes      float64   `toml:"max_minutes"`
	MinGB           float64   `toml:"min_gb"`
	MaxGB           float64   `toml:"max_gb"`
}

// Drives contains configuration for syncing the catalog onto playback drives.
type Drives struct {
	OverwriteLarger bool `toml:"overwrite_larger"`
}

// Playlist contains configuration for screening playlist generation.
// Relative paths resolve against the catalog root.
type Playlist struct {
	GapFile    string `toml:"gap_file"`
	BumperFile string `toml:"bumper_file"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Fetch          bool   `toml:"fetch"`
	Audit          bool   `toml:"audit"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for matinee.
//
// Configuration sections by subsystem:
//   - Paths: catalog root, download root, and working directories
//   - Sheet: submissions spreadsheet location and layout
//   - Matching: title reconciliation thresholds
//   - Fetch: worker count, retries, and stream downloader settings
//   - Audit: screener delivery thresholds
//   - Drives: playback drive sync behavior
//   - Playlist: screening playlist generation
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Sheet         Sheet         `toml:"sheet"`
	Matching      Matching      `toml:"matching"`
	Fetch         Fetch         `toml:"fetch"`
	Audit         Audit         `toml:"audit"`
	Drives        Drives        `toml:"drives"`
	Playlist      Playlist      `toml:"playlist"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/matinee/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/matinee/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("matinee.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the working directories matinee owns. AssetsDir is
// created on a best-effort basis so commands can run while external storage is
// temporarily unavailable; the fetch preflight reports it properly when the
// download root is genuinely unusable. CatalogDir is never created here: a
// missing catalog root means an empty catalog, not a new directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.ReportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.AssetsDir) != "" {
		_ = os.MkdirAll(c.Paths.AssetsDir, 0o755)
	}
	return nil
}

// LedgerPath returns the location of the run ledger database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "matinee.db")
}

// LockPath returns the location of the fetch run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "matinee.lock")
}

// YtdlpBinary returns the yt-dlp executable name used for stream downloads.
func (c *Config) YtdlpBinary() string {
	return "yt-dlp"
}

// FFprobeBinary returns the ffprobe executable name used for screener audits.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
