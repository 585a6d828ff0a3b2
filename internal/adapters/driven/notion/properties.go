package notion

import (
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors/chunker"
)

// MaxRichTextItems is the most text objects Notion accepts in one
// rich_text or title array. Together with the 2000-rune segment size it
// bounds mirrored content at 200,000 runes.
const MaxRichTextItems = 100

// propertyBuilder maps an entry onto the configured database properties.
type propertyBuilder struct {
	names           domain.PropertyNames
	defaultStatus   string
	defaultCategory string
	chunker         *chunker.Processor
}

func newPropertyBuilder(settings domain.NotionSettings) *propertyBuilder {
	return &propertyBuilder{
		names:           settings.Properties,
		defaultStatus:   settings.DefaultStatus,
		defaultCategory: settings.DefaultCategory,
		chunker:         chunker.New(),
	}
}

// create returns the full property set, external id included.
func (b *propertyBuilder) create(entry *domain.Entry, fingerprint string) map[string]any {
	props := b.mutable(entry)
	props[b.names.ExternalID] = richText([]string{fingerprint})
	return props
}

// mutable returns every property except the external id, which is
// immutable once a page exists.
func (b *propertyBuilder) mutable(entry *domain.Entry) map[string]any {
	category := strings.TrimSpace(entry.Topic)
	if category == "" {
		category = b.defaultCategory
	}
	return map[string]any{
		b.names.Title: map[string]any{
			"title": []any{textObject(b.title(entry))},
		},
		b.names.AITool:   selectValue(entry.Category),
		b.names.Category: selectValue(category),
		b.names.Status: map[string]any{
			"status": map[string]any{"name": b.defaultStatus},
		},
		b.names.Content: richText(b.content(entry)),
	}
}

// title returns the entry title cut to one text object.
func (b *propertyBuilder) title(entry *domain.Entry) string {
	segments := b.chunker.Split(entry.Title)
	if len(segments) == 0 {
		return ""
	}
	if len(segments) > 1 {
		logger.Warn("title of %s exceeds %d characters, truncating", entry.Fingerprint, b.chunker.SegmentSize())
	}
	return segments[0]
}

// content returns the content segments, capped at MaxRichTextItems.
func (b *propertyBuilder) content(entry *domain.Entry) []string {
	segments := b.chunker.Split(entry.Content)
	if len(segments) > MaxRichTextItems {
		logger.Warn("content of %q exceeds %d characters, mirroring the first %d segments only",
			entry.Title, MaxRichTextItems*b.chunker.SegmentSize(), MaxRichTextItems)
		segments = segments[:MaxRichTextItems]
	}
	return segments
}

func selectValue(name string) map[string]any {
	return map[string]any{
		"select": map[string]any{"name": name},
	}
}

func richText(segments []string) map[string]any {
	items := make([]any, 0, len(segments))
	for _, s := range segments {
		items = append(items, textObject(s))
	}
	return map[string]any{"rich_text": items}
}

func textObject(content string) map[string]any {
	return map[string]any{
		"type": "text",
		"text": map[string]any{"content": content},
	}
}

// richTextValue is the readable part of a rich_text property value.
type richTextValue struct {
	RichText []struct {
		PlainText string `json:"plain_text"`
		Text      struct {
			Content string `json:"content"`
		} `json:"text"`
	} `json:"rich_text"`
}

// plainText concatenates the text of a rich_text property.
func (v richTextValue) plainText() string {
	var sb strings.Builder
	for _, rt := range v.RichText {
		if rt.PlainText != "" {
			sb.WriteString(rt.PlainText)
			continue
		}
		sb.WriteString(rt.Text.Content)
	}
	return sb.String()
}
