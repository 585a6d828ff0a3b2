package domain

import (
	"fmt"
	"strings"
	"time"
)

// Notion defaults.
const (
	DefaultNotionBaseURL     = "https://api.notion.com"
	DefaultNotionVersion     = "2022-06-28"
	DefaultNotionStatus      = "New"
	DefaultNotionCategory    = "General"
	DefaultStoreRoot         = "ai_knowledge_base"
	DefaultMaxAttempts       = 5
	DefaultBaseDelay         = time.Second
	DefaultMaxDelay          = 30 * time.Second
	DefaultRequestsPerSecond = 3.0
)

// PropertyNames maps each remote property to its name in the target database.
type PropertyNames struct {
	Title      string
	AITool     string
	Category   string
	Status     string
	Content    string
	ExternalID string
}

// DefaultPropertyNames returns the property names used when none are configured.
func DefaultPropertyNames() PropertyNames {
	return PropertyNames{
		Title:      "Title",
		AITool:     "AI Tool",
		Category:   "Category",
		Status:     "Status",
		Content:    "Content",
		ExternalID: "External ID",
	}
}

// NotionSettings is the resolved remote configuration.
// It is read once and passed into the remote adapter's constructor.
type NotionSettings struct {
	Token           string
	DatabaseID      string
	APIVersion      string
	BaseURL         string
	DefaultStatus   string
	DefaultCategory string
	Properties      PropertyNames
}

// DefaultNotionSettings returns settings with every optional field populated.
func DefaultNotionSettings() NotionSettings {
	return NotionSettings{
		APIVersion:      DefaultNotionVersion,
		BaseURL:         DefaultNotionBaseURL,
		DefaultStatus:   DefaultNotionStatus,
		DefaultCategory: DefaultNotionCategory,
		Properties:      DefaultPropertyNames(),
	}
}

// Validate returns ErrConfig naming every missing required value.
func (s NotionSettings) Validate() error {
	var missing []string
	if strings.TrimSpace(s.Token) == "" {
		missing = append(missing, "NOTION_TOKEN")
	}
	if strings.TrimSpace(s.DatabaseID) == "" {
		missing = append(missing, "DATABASE_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required %s", ErrConfig, strings.Join(missing, ", "))
	}
	return nil
}

// SyncSettings configures the retry transport.
type SyncSettings struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RequestsPerSecond float64
}

// DefaultSyncSettings returns the default retry policy.
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		MaxAttempts:       DefaultMaxAttempts,
		BaseDelay:         DefaultBaseDelay,
		MaxDelay:          DefaultMaxDelay,
		RequestsPerSecond: DefaultRequestsPerSecond,
	}
}
