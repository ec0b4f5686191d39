package services

import (
	"fmt"
	"os"

	"github.com/robfig/cron/v3"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
	"github.com/corpora-labs/docseek/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyIndexPath      = "index.path"
	keyIndexDict      = "index.dict_path"
	keyIndexUserDict  = "index.user_dict_path"
	keyIndexMinToken  = "index.min_token_length"
	keyIndexLanguage  = "index.default_language"
	keySyncEnabled    = "sync.enabled"
	keySyncSchedule   = "sync.schedule"
	keyMetricsEnabled = "metrics.enabled"
)

// SettingsService manages application settings on top of the config store.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, falling back to defaults
// for keys the config file does not set.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Index: domain.IndexSettings{
			Path:            s.getString(keyIndexPath, defaults.Index.Path),
			DictPath:        s.configStore.GetString(keyIndexDict), // empty means built-in fallback
			UserDictPath:    s.configStore.GetString(keyIndexUserDict),
			MinTokenLength:  s.getInt(keyIndexMinToken, defaults.Index.MinTokenLength),
			DefaultLanguage: s.getString(keyIndexLanguage, defaults.Index.DefaultLanguage),
		},
		Sync: domain.SyncSettings{
			Enabled:  s.getBool(keySyncEnabled, defaults.Sync.Enabled),
			Schedule: s.getString(keySyncSchedule, defaults.Sync.Schedule),
		},
		Metrics: domain.MetricsSettings{
			Enabled: s.getBool(keyMetricsEnabled, defaults.Metrics.Enabled),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.configStore.Set(keyIndexPath, settings.Index.Path); err != nil {
		return fmt.Errorf("save index path: %w", err)
	}
	if err := s.configStore.Set(keyIndexDict, settings.Index.DictPath); err != nil {
		return fmt.Errorf("save dict path: %w", err)
	}
	if err := s.configStore.Set(keyIndexUserDict, settings.Index.UserDictPath); err != nil {
		return fmt.Errorf("save user dict path: %w", err)
	}
	if err := s.configStore.Set(keyIndexMinToken, settings.Index.MinTokenLength); err != nil {
		return fmt.Errorf("save min token length: %w", err)
	}
	if err := s.configStore.Set(keyIndexLanguage, settings.Index.DefaultLanguage); err != nil {
		return fmt.Errorf("save default language: %w", err)
	}
	if err := s.configStore.Set(keySyncEnabled, settings.Sync.Enabled); err != nil {
		return fmt.Errorf("save sync enabled: %w", err)
	}
	if err := s.configStore.Set(keySyncSchedule, settings.Sync.Schedule); err != nil {
		return fmt.Errorf("save sync schedule: %w", err)
	}
	if err := s.configStore.Set(keyMetricsEnabled, settings.Metrics.Enabled); err != nil {
		return fmt.Errorf("save metrics enabled: %w", err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Validate checks that the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Index.MinTokenLength < 1 {
		return fmt.Errorf("%w: index.min_token_length must be at least 1", domain.ErrInvalidInput)
	}

	for key, path := range map[string]string{
		keyIndexDict:     settings.Index.DictPath,
		keyIndexUserDict: settings.Index.UserDictPath,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s %q: %v", domain.ErrInvalidInput, key, path, err)
		}
	}

	if settings.Sync.Enabled {
		if _, err := cron.ParseStandard(settings.Sync.Schedule); err != nil {
			return fmt.Errorf("%w: sync.schedule %q: %v", domain.ErrInvalidInput, settings.Sync.Schedule, err)
		}
	}

	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}
