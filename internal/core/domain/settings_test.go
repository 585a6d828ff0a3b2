package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotionSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		db      string
		wantErr bool
		missing []string
	}{
		{"complete", "secret", "db-1", false, nil},
		{"missing token", "", "db-1", true, []string{"NOTION_TOKEN"}},
		{"missing database", "secret", " ", true, []string{"DATABASE_ID"}},
		{"missing both", "", "", true, []string{"NOTION_TOKEN", "DATABASE_ID"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultNotionSettings()
			s.Token = tt.token
			s.DatabaseID = tt.db

			err := s.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrConfig))
			for _, m := range tt.missing {
				assert.Contains(t, err.Error(), m)
			}
		})
	}
}

func TestDefaultNotionSettings(t *testing.T) {
	s := DefaultNotionSettings()

	assert.Equal(t, DefaultNotionVersion, s.APIVersion)
	assert.Equal(t, DefaultNotionBaseURL, s.BaseURL)
	assert.Equal(t, "External ID", s.Properties.ExternalID)
	assert.Equal(t, "AI Tool", s.Properties.AITool)
	assert.Equal(t, DefaultNotionStatus, s.DefaultStatus)
}

func TestDefaultSyncSettings(t *testing.T) {
	s := DefaultSyncSettings()

	assert.Equal(t, 5, s.MaxAttempts)
	assert.Positive(t, s.BaseDelay)
	assert.GreaterOrEqual(t, s.MaxDelay, s.BaseDelay)
}
