package domain

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"
)

// DefaultTitle is used when an entry is written without a title.
const DefaultTitle = "Untitled"

// Entry is one knowledge-base record.
// It is persisted as a metadata header followed by a human-readable body.
// The JSON field names match the on-disk header and the index.
type Entry struct {
	// ID is the timestamp-derived identifier (YYYYMMDD_HHMMSS).
	ID string `json:"id"`

	// Fingerprint is the deterministic external identity of the entry.
	Fingerprint string `json:"external_id"`

	// Title is the human-readable title.
	Title string `json:"title"`

	// CreatedAt is when the entry was written.
	CreatedAt Timestamp `json:"date"`

	// Category is the normalised lowercase category (the AI model the note came from).
	Category string `json:"model"`

	// Tags is an order-insignificant tag set.
	Tags []string `json:"tags"`

	// URL is the optional source URL.
	URL string `json:"url"`

	// Attachment is the optional attachment path relative to the store root.
	Attachment string `json:"attachment"`

	// Topic is an optional remote grouping (Notion "Category" select).
	Topic string `json:"topic,omitempty"`

	// Filename is the entry's path relative to the store root.
	// Only present in index records; never written into the file header.
	Filename string `json:"filename,omitempty"`

	// Content is the raw body content. It is not part of the header.
	Content string `json:"-"`
}

// HasTag reports whether the entry carries tag, ignoring case.
func (e *Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// NormaliseCategory returns the canonical slug of a category: lowercase
// letters, digits and '-', with every other run of characters collapsed to
// a single '_'. Leading and trailing separators are dropped, so the result
// is always a single plain directory name ("team/gpt" becomes "team_gpt",
// "../x" and ".x" become "x"). It returns "" when nothing usable remains.
func NormaliseCategory(category string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(category)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return strings.Trim(b.String(), "-")
}

// NormaliseTitle trims the title and substitutes DefaultTitle when empty.
func NormaliseTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return DefaultTitle
	}
	return title
}

// NormaliseTags trims every tag and drops empties. Order is preserved.
func NormaliseTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Timestamp layouts. Headers are written in RFC3339; older files carry
// a zone-less ISO form which is still accepted on read.
const (
	TimestampLayout       = time.RFC3339
	legacyTimestampLayout = "2006-01-02T15:04:05"
	EntryIDLayout         = "20060102_150405"
)

// Timestamp is a second-precision creation time.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to whole seconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

// MarshalJSON writes the timestamp in TimestampLayout.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(TimestampLayout))
}

// UnmarshalJSON accepts RFC3339 and the legacy zone-less layout.
// An empty string yields the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(TimestampLayout, s)
	if err != nil {
		parsed, err = time.ParseInLocation(legacyTimestampLayout, s, time.Local)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}
