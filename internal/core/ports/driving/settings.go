package driving

import "github.com/custodia-labs/sercha-kb/internal/core/domain"

// SettingsService resolves configuration from the config file and environment.
type SettingsService interface {
	// StoreRoot returns the knowledge-base root directory.
	StoreRoot() string

	// Notion returns the resolved remote settings. Not validated.
	Notion() domain.NotionSettings

	// Sync returns the resolved retry policy.
	Sync() domain.SyncSettings

	// Values lists every known setting with its resolved value and origin.
	Values() []SettingValue

	// Set persists a setting in the config file.
	Set(key, value string) error
}

// SettingValue is one resolved setting.
type SettingValue struct {
	Key    string
	Value  string
	Origin string
	Secret bool
}
