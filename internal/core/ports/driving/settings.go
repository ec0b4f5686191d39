package driving

import "github.com/corpora-labs/docseek/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Validate checks that the current settings are usable (paths
	// resolvable, cron expression parseable).
	Validate() error
}
