package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyStoreRoot          = "store.root"
	KeyNotionToken        = "notion.token"
	KeyNotionDatabaseID   = "notion.database_id"
	KeyNotionVersion      = "notion.version"
	KeyNotionBaseURL      = "notion.base_url"
	KeyNotionStatus       = "notion.default_status"
	KeyNotionCategory     = "notion.default_category"
	KeyPropTitle          = "notion.properties.title"
	KeyPropAITool         = "notion.properties.ai_tool"
	KeyPropCategory       = "notion.properties.category"
	KeyPropStatus         = "notion.properties.status"
	KeyPropContent        = "notion.properties.content"
	KeyPropExternalID     = "notion.properties.external_id"
	KeySyncMaxAttempts    = "sync.max_attempts"
	KeySyncBaseDelayMS    = "sync.base_delay_ms"
	KeySyncMaxDelayMS     = "sync.max_delay_ms"
	KeySyncRequestsPerSec = "sync.requests_per_second"
)

// Setting origins reported by Values.
const (
	OriginEnv     = "env"
	OriginConfig  = "config"
	OriginDefault = "default"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
)

// settingDef describes one resolvable setting.
type settingDef struct {
	key    string
	env    string
	def    string
	kind   settingKind
	secret bool
}

func settingDefs() []settingDef {
	props := domain.DefaultPropertyNames()
	sync := domain.DefaultSyncSettings()
	return []settingDef{
		{key: KeyStoreRoot, env: "KB_ROOT", def: domain.DefaultStoreRoot},
		{key: KeyNotionToken, env: "NOTION_TOKEN", secret: true},
		{key: KeyNotionDatabaseID, env: "DATABASE_ID"},
		{key: KeyNotionVersion, env: "NOTION_VERSION", def: domain.DefaultNotionVersion},
		{key: KeyNotionBaseURL, def: domain.DefaultNotionBaseURL},
		{key: KeyNotionStatus, env: "NOTION_DEFAULT_STATUS", def: domain.DefaultNotionStatus},
		{key: KeyNotionCategory, def: domain.DefaultNotionCategory},
		{key: KeyPropTitle, env: "NOTION_PROP_TITLE", def: props.Title},
		{key: KeyPropAITool, env: "NOTION_PROP_AI_TOOL", def: props.AITool},
		{key: KeyPropCategory, env: "NOTION_PROP_CATEGORY", def: props.Category},
		{key: KeyPropStatus, env: "NOTION_PROP_STATUS", def: props.Status},
		{key: KeyPropContent, env: "NOTION_PROP_CONTENT", def: props.Content},
		{key: KeyPropExternalID, env: "NOTION_PROP_EXTERNAL_ID", def: props.ExternalID},
		{key: KeySyncMaxAttempts, def: strconv.Itoa(sync.MaxAttempts), kind: kindInt},
		{key: KeySyncBaseDelayMS, def: strconv.FormatInt(sync.BaseDelay.Milliseconds(), 10), kind: kindInt},
		{key: KeySyncMaxDelayMS, def: strconv.FormatInt(sync.MaxDelay.Milliseconds(), 10), kind: kindInt},
		{key: KeySyncRequestsPerSec, def: strconv.FormatFloat(sync.RequestsPerSecond, 'f', -1, 64), kind: kindFloat},
	}
}

// SettingsService resolves settings from, in order of precedence, the
// environment, the config file and built-in defaults.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
	defs        []settingDef
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnvLookup replaces os.LookupEnv.
func WithEnvLookup(fn func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) {
		if fn != nil {
			s.lookupEnv = fn
		}
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
		defs:        settingDefs(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StoreRoot returns the knowledge-base root directory.
func (s *SettingsService) StoreRoot() string {
	return s.get(KeyStoreRoot)
}

// Notion returns the resolved remote settings. They are not validated.
func (s *SettingsService) Notion() domain.NotionSettings {
	return domain.NotionSettings{
		Token:           s.get(KeyNotionToken),
		DatabaseID:      s.get(KeyNotionDatabaseID),
		APIVersion:      s.get(KeyNotionVersion),
		BaseURL:         s.get(KeyNotionBaseURL),
		DefaultStatus:   s.get(KeyNotionStatus),
		DefaultCategory: s.get(KeyNotionCategory),
		Properties: domain.PropertyNames{
			Title:      s.get(KeyPropTitle),
			AITool:     s.get(KeyPropAITool),
			Category:   s.get(KeyPropCategory),
			Status:     s.get(KeyPropStatus),
			Content:    s.get(KeyPropContent),
			ExternalID: s.get(KeyPropExternalID),
		},
	}
}

// Sync returns the resolved retry policy. Unparseable values fall back
// to the defaults.
func (s *SettingsService) Sync() domain.SyncSettings {
	defaults := domain.DefaultSyncSettings()
	out := domain.SyncSettings{
		MaxAttempts:       s.getInt(KeySyncMaxAttempts, defaults.MaxAttempts),
		BaseDelay:         time.Duration(s.getInt(KeySyncBaseDelayMS, int(defaults.BaseDelay.Milliseconds()))) * time.Millisecond,
		MaxDelay:          time.Duration(s.getInt(KeySyncMaxDelayMS, int(defaults.MaxDelay.Milliseconds()))) * time.Millisecond,
		RequestsPerSecond: defaults.RequestsPerSecond,
	}
	if raw := s.get(KeySyncRequestsPerSec); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			logger.Warn("ignoring %s=%q: %v", KeySyncRequestsPerSec, raw, err)
		} else {
			out.RequestsPerSecond = rps
		}
	}
	return out
}

// Values lists every known setting with its resolved value and origin.
func (s *SettingsService) Values() []driving.SettingValue {
	values := make([]driving.SettingValue, 0, len(s.defs))
	for _, def := range s.defs {
		value, origin := s.resolve(def)
		values = append(values, driving.SettingValue{
			Key:    def.key,
			Value:  value,
			Origin: origin,
			Secret: def.secret,
		})
	}
	return values
}

// Set validates and persists a setting in the config file.
func (s *SettingsService) Set(key, value string) error {
	def, ok := s.lookup(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var stored any = value
	switch def.kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		stored = int64(n)
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		stored = f
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SettingsService) lookup(key string) (settingDef, bool) {
	for _, def := range s.defs {
		if def.key == key {
			return def, true
		}
	}
	return settingDef{}, false
}

func (s *SettingsService) get(key string) string {
	def, ok := s.lookup(key)
	if !ok {
		return ""
	}
	value, _ := s.resolve(def)
	return value
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	raw := s.get(key)
	if raw == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		logger.Warn("ignoring %s=%q: not a non-negative integer", key, raw)
		return defaultVal
	}
	return n
}

// resolve returns the effective value of def and where it came from.
func (s *SettingsService) resolve(def settingDef) (string, string) {
	if def.env != "" {
		if v, ok := s.lookupEnv(def.env); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), OriginEnv
		}
	}
	if v, ok := s.configStore.Get(def.key); ok {
		if str := configString(v); str != "" {
			return str, OriginConfig
		}
	}
	return def.def, OriginDefault
}

// configString renders a TOML value as a setting string.
func configString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
