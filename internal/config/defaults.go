package config

const (
	defaultCatalogDir          = "~/films"
	defaultAssetsDir           = "~/films/incoming"
	defaultStateDir            = "~/.local/share/matinee"
	defaultLogDir              = "~/.local/share/matinee/logs"
	defaultReportDir           = "~/.local/share/matinee/reports"
	defaultSheetTitleColumn    = "Title"
	defaultSheetTimeout        = 60
	defaultAssetThreshold      = 0.8
	defaultListThreshold       = 0.7
	defaultReviewFloor         = 0.5
	defaultFetchWorkers        = 4
	defaultFetchRetryAttempts  = 3
	defaultFetchRetryDelay     = 1.5
	defaultMinCompleteMiB      = 10
	defaultFetchTimeout        = 60
	defaultMaxStreamHeight     = 1080
	defaultStreamRetries       = 2
	defaultVideoPasswordColumn = "Password"
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults. The audit
// thresholds describe the festival's standard DCP-adjacent delivery format:
// 1080p h264 with stereo or 5.1 AAC/PCM audio at sane bitrates.
func Default() Config {
	return Config{
		Paths: Paths{
			CatalogDir: defaultCatalogDir,
			AssetsDir:  defaultAssetsDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
			ReportDir:  defaultReportDir,
		},
		Sheet: Sheet{
			TitleColumn:    defaultSheetTitleColumn,
			RequestTimeout: defaultSheetTimeout,
		},
		Matching: Matching{
			AssetThreshold: defaultAssetThreshold,
			ListThreshold:  defaultListThreshold,
			ReviewFloor:    defaultReviewFloor,
		},
		Fetch: Fetch{
			Workers:             defaultFetchWorkers,
			RetryAttempts:       defaultFetchRetryAttempts,
			RetryDelaySeconds:   defaultFetchRetryDelay,
			MinCompleteMiB:      defaultMinCompleteMiB,
			RequestTimeout:      defaultFetchTimeout,
			MaxHeight:           defaultMaxStreamHeight,
			StreamRetries:       defaultStreamRetries,
			VideoPasswordColumn: defaultVideoPasswordColumn,
		},
		Audit: Audit{
			TargetWidth:     1920,
			TargetHeight:    1080,
			AspectRatios:    []float64{1.78, 1.85, 2.39},
			AspectTolerance: 0.02,
			VideoCodecs:     []string{"h264"},
			AudioCodecs:     []string{"aac", "pcm_s16le", "pcm_s24le"},
			AudioChannels:   []int{2, 6},
			MinVideoMbps:    4.0,
			MaxVideoMbps:    20.0,
			MinFPS:          23.5,
			MaxFPS:          60.0,
			MinMinutes:      1.0,
			MaxMinutes:      180.0,
			MinGB:           0.7,
			MaxGB:           10.0,
		},
		Drives: Drives{
			OverwriteLarger: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Fetch:          true,
			Audit:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
