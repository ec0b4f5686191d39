package domain

// IndexSettings holds search index configuration.
type IndexSettings struct {
	// Path is the on-disk index directory.
	Path string

	// DictPath is the main segmentation dictionary file. Empty enables
	// the dictionary-less fallback (Han unigrams + bigrams).
	DictPath string

	// UserDictPath is an optional custom dictionary loaded after the
	// main one.
	UserDictPath string

	// MinTokenLength filters out terms shorter than this many runes.
	MinTokenLength int

	// DefaultLanguage is assigned to documents whose source does not
	// declare one.
	DefaultLanguage string
}

// SyncSettings holds background synchronisation configuration.
type SyncSettings struct {
	// Enabled is the master switch for scheduled sync.
	Enabled bool

	// Schedule is the cron expression for the document sync task.
	Schedule string
}

// MetricsSettings holds metrics exposure configuration.
type MetricsSettings struct {
	// Enabled exposes the Prometheus registry on the HTTP serve port.
	Enabled bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Index holds search index settings.
	Index IndexSettings

	// Sync holds scheduled sync settings.
	Sync SyncSettings

	// Metrics holds metrics settings.
	Metrics MetricsSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Paths are resolved relative to the data directory by the config layer.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Index: IndexSettings{
			MinTokenLength:  1,
			DefaultLanguage: "zh",
		},
		Sync: SyncSettings{
			Enabled:  true,
			Schedule: "@every 1h",
		},
		Metrics: MetricsSettings{
			Enabled: true,
		},
	}
}
