package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// QueryPageSize is the number of results requested per query page.
const QueryPageSize = 100

// Ensure Client implements the interface.
var _ driven.RemoteStore = (*Client)(nil)

// Client is a RemoteStore backed by a Notion database.
type Client struct {
	transport  *Transport
	baseURL    string
	token      string
	version    string
	databaseID string
	externalID string
	props      *propertyBuilder
}

// NewClient creates a Notion client. Settings should already be validated.
func NewClient(settings domain.NotionSettings, transport *Transport) *Client {
	defaults := domain.DefaultNotionSettings()
	if settings.BaseURL == "" {
		settings.BaseURL = defaults.BaseURL
	}
	if settings.APIVersion == "" {
		settings.APIVersion = defaults.APIVersion
	}
	if settings.DefaultStatus == "" {
		settings.DefaultStatus = defaults.DefaultStatus
	}
	if settings.DefaultCategory == "" {
		settings.DefaultCategory = defaults.DefaultCategory
	}
	settings.Properties = fillPropertyNames(settings.Properties)

	return &Client{
		transport:  transport,
		baseURL:    strings.TrimRight(strings.TrimSpace(settings.BaseURL), "/"),
		token:      strings.TrimSpace(settings.Token),
		version:    settings.APIVersion,
		databaseID: settings.DatabaseID,
		externalID: settings.Properties.ExternalID,
		props:      newPropertyBuilder(settings),
	}
}

type queryResponse struct {
	Results []struct {
		ID         string                     `json:"id"`
		Properties map[string]json.RawMessage `json:"properties"`
	} `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// Query returns one page of database rows whose external id equals fingerprint.
func (c *Client) Query(ctx context.Context, fingerprint, cursor string) (*domain.RemotePage, error) {
	body := map[string]any{
		"filter": map[string]any{
			"property":  c.externalID,
			"rich_text": map[string]any{"equals": fingerprint},
		},
		"page_size": QueryPageSize,
	}
	if cursor != "" {
		body["start_cursor"] = cursor
	}

	var out queryResponse
	endpoint := c.baseURL + "/v1/databases/" + url.PathEscape(c.databaseID) + "/query"
	if err := c.call(ctx, http.MethodPost, endpoint, body, &out); err != nil {
		return nil, err
	}

	page := &domain.RemotePage{HasMore: out.HasMore}
	if out.NextCursor != nil {
		page.NextCursor = *out.NextCursor
	}
	for _, r := range out.Results {
		record := domain.RemoteRecord{ID: r.ID}
		if raw, ok := r.Properties[c.externalID]; ok {
			var value richTextValue
			if json.Unmarshal(raw, &value) == nil {
				record.Fingerprint = value.plainText()
			}
		}
		page.Records = append(page.Records, record)
	}
	return page, nil
}

// Create adds a database row for entry and returns the new page ID.
func (c *Client) Create(ctx context.Context, entry *domain.Entry) (string, error) {
	fingerprint := entry.Fingerprint
	if fingerprint == "" {
		fingerprint = domain.EntryFingerprint(entry)
	}
	body := map[string]any{
		"parent":     map[string]any{"database_id": c.databaseID},
		"properties": c.props.create(entry, fingerprint),
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, c.baseURL+"/v1/pages", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Update rewrites the mutable properties of an existing page.
func (c *Client) Update(ctx context.Context, remoteID string, entry *domain.Entry) error {
	body := map[string]any{
		"properties": c.props.mutable(entry),
	}
	endpoint := c.baseURL + "/v1/pages/" + url.PathEscape(remoteID)
	return c.call(ctx, http.MethodPatch, endpoint, body, nil)
}

func (c *Client) call(ctx context.Context, method, endpoint string, body, out any) error {
	resp, err := c.transport.Do(ctx, Request{
		Method: method,
		URL:    endpoint,
		Header: c.header(),
		Body:   body,
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		apiErr := newAPIError(resp)
		switch {
		case IsUnauthorized(apiErr):
			apiErr.Hint = "check the integration token (NOTION_TOKEN)"
		case IsNotFound(apiErr):
			apiErr.Hint = "check DATABASE_ID and that the database is shared with the integration"
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: notion %s response: %w", domain.ErrParse, method, err)
	}
	return nil
}

func (c *Client) header() http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+c.token)
	h.Set("Notion-Version", c.version)
	h.Set("Content-Type", "application/json")
	return h
}

func fillPropertyNames(names domain.PropertyNames) domain.PropertyNames {
	defaults := domain.DefaultPropertyNames()
	fill := func(v *string, d string) {
		if strings.TrimSpace(*v) == "" {
			*v = d
		}
	}
	fill(&names.Title, defaults.Title)
	fill(&names.AITool, defaults.AITool)
	fill(&names.Category, defaults.Category)
	fill(&names.Status, defaults.Status)
	fill(&names.Content, defaults.Content)
	fill(&names.ExternalID, defaults.ExternalID)
	return names
}
