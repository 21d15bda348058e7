package config

const (
	defaultLogDir          = "~/.local/share/seedkeeper/logs"
	defaultScratchDir      = "~/.cache/seedkeeper/extracted"
	defaultTrackerURL      = "http://localhost:8080/api/v2"
	defaultRequestTimeout  = 10
	defaultReadyTimeout    = 30
	defaultRcloneBinary    = "rclone"
	defaultTransfers       = 4
	defaultStatsInterval   = "30s"
	defaultDownloadsPrefix = "downloads"
	defaultUnarBinary      = "unar"
	defaultMinSeedingDays  = 14
	defaultMinAvgRate      = 2048
	defaultStaleHours      = 24
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

var defaultArchiveExtensions = []string{".zip", ".rar"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			LogDir:     defaultLogDir,
		},
		Categories: map[string]string{},
		Tracker: Tracker{
			URL:            defaultTrackerURL,
			RequestTimeout: defaultRequestTimeout,
			ReadyTimeout:   defaultReadyTimeout,
		},
		Remote: Remote{
			RcloneBinary:    defaultRcloneBinary,
			Transfers:       defaultTransfers,
			StatsInterval:   defaultStatsInterval,
			DownloadsPrefix: defaultDownloadsPrefix,
		},
		Archive: Archive{
			Extensions: append([]string(nil), defaultArchiveExtensions...),
			UnarBinary: defaultUnarBinary,
		},
		Retention: Retention{
			MinSeedingDays: defaultMinSeedingDays,
			MinAvgRate:     defaultMinAvgRate,
		},
		Staging: Staging{
			StaleHours: defaultStaleHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
