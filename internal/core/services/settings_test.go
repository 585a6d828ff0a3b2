package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

func newTestSettings(t *testing.T, env map[string]string) (*SettingsService, *file.ConfigStore) {
	t.Helper()
	store, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)
	svc := NewSettingsService(store, WithEnvLookup(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}))
	return svc, store
}

func TestSettingsService_Defaults(t *testing.T) {
	svc, _ := newTestSettings(t, nil)

	assert.Equal(t, domain.DefaultStoreRoot, svc.StoreRoot())

	notion := svc.Notion()
	assert.Empty(t, notion.Token)
	assert.Empty(t, notion.DatabaseID)
	assert.Equal(t, domain.DefaultNotionVersion, notion.APIVersion)
	assert.Equal(t, domain.DefaultNotionBaseURL, notion.BaseURL)
	assert.Equal(t, domain.DefaultNotionStatus, notion.DefaultStatus)
	assert.Equal(t, domain.DefaultNotionCategory, notion.DefaultCategory)
	assert.Equal(t, domain.DefaultPropertyNames(), notion.Properties)
	assert.True(t, domain.IsConfigError(notion.Validate()))

	assert.Equal(t, domain.DefaultSyncSettings(), svc.Sync())
}

func TestSettingsService_EnvOverridesConfig(t *testing.T) {
	svc, store := newTestSettings(t, map[string]string{
		"NOTION_TOKEN":      "env-token",
		"NOTION_PROP_TITLE": "Name",
		"KB_ROOT":           "  ",
	})
	require.NoError(t, store.Set(KeyNotionToken, "file-token"))
	require.NoError(t, store.Set(KeyNotionDatabaseID, "db-from-file"))
	require.NoError(t, store.Set(KeyStoreRoot, "/srv/kb"))

	notion := svc.Notion()
	assert.Equal(t, "env-token", notion.Token)
	assert.Equal(t, "db-from-file", notion.DatabaseID)
	assert.Equal(t, "Name", notion.Properties.Title)
	assert.Equal(t, "/srv/kb", svc.StoreRoot(), "blank env values do not override")
	assert.NoError(t, notion.Validate())
}

func TestSettingsService_Sync(t *testing.T) {
	svc, store := newTestSettings(t, nil)
	require.NoError(t, svc.Set(KeySyncMaxAttempts, "3"))
	require.NoError(t, svc.Set(KeySyncBaseDelayMS, "250"))
	require.NoError(t, svc.Set(KeySyncRequestsPerSec, "1.5"))
	require.NoError(t, store.Set(KeySyncMaxDelayMS, "soon"))

	got := svc.Sync()

	assert.Equal(t, 3, got.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, got.BaseDelay)
	assert.Equal(t, domain.DefaultMaxDelay, got.MaxDelay, "bad value falls back")
	assert.InDelta(t, 1.5, got.RequestsPerSecond, 0.0001)
}

func TestSettingsService_TypedConfigValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		KeySyncMaxAttempts:    int64(2),
		KeySyncMaxDelayMS:     int64(1500),
		KeySyncRequestsPerSec: float64(0),
	})
	svc := NewSettingsService(store, WithEnvLookup(func(string) (string, bool) { return "", false }))

	got := svc.Sync()

	assert.Equal(t, 2, got.MaxAttempts)
	assert.Equal(t, 1500*time.Millisecond, got.MaxDelay)
	assert.Zero(t, got.RequestsPerSecond)
}

func TestSettingsService_SetStoreError(t *testing.T) {
	store := memory.NewConfigStore(nil)
	store.SetErr = domain.NewIOError("config.toml", errors.New("read-only"))
	svc := NewSettingsService(store)

	err := svc.Set(KeyNotionDatabaseID, "db-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIO)
	assert.Contains(t, err.Error(), KeyNotionDatabaseID)
}

func TestSettingsService_Set(t *testing.T) {
	svc, store := newTestSettings(t, nil)

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{"string setting", KeyNotionDatabaseID, " db-1 ", false},
		{"integer setting", KeySyncMaxAttempts, "4", false},
		{"float setting", KeySyncRequestsPerSec, "2.5", false},
		{"unknown key", "notion.colour", "blue", true},
		{"bad integer", KeySyncMaxAttempts, "many", true},
		{"negative integer", KeySyncBaseDelayMS, "-1", true},
		{"bad float", KeySyncRequestsPerSec, "fast", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Set(tt.key, tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}

	assert.Equal(t, "db-1", store.GetString(KeyNotionDatabaseID))
	assert.Equal(t, 4, store.GetInt(KeySyncMaxAttempts))
}

func TestSettingsService_Values(t *testing.T) {
	svc, store := newTestSettings(t, map[string]string{"DATABASE_ID": "env-db"})
	require.NoError(t, store.Set(KeyNotionToken, "secret-token"))

	values := svc.Values()

	byKey := make(map[string]driving.SettingValue, len(values))
	for _, v := range values {
		byKey[v.Key] = v
	}
	require.Len(t, byKey, len(values), "keys are unique")

	assert.Equal(t, driving.SettingValue{Key: KeyNotionToken, Value: "secret-token", Origin: OriginConfig, Secret: true}, byKey[KeyNotionToken])
	assert.Equal(t, OriginEnv, byKey[KeyNotionDatabaseID].Origin)
	assert.Equal(t, "env-db", byKey[KeyNotionDatabaseID].Value)
	assert.Equal(t, OriginDefault, byKey[KeyStoreRoot].Origin)
	assert.Equal(t, KeyStoreRoot, values[0].Key, "listed in definition order")
}
