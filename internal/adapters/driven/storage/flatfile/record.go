package flatfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// headerDelimiter opens and closes the metadata block of a record file.
const headerDelimiter = "---"

// Body reference line prefixes.
const (
	sourcePrefix     = "- Source: "
	attachmentPrefix = "- Attachment: "
)

var (
	errMissingHeader      = errors.New("missing metadata header")
	errUnterminatedHeader = errors.New("unterminated metadata header")
	errMissingFingerprint = errors.New("metadata header has no external_id")
)

// encodeRecord renders an entry as a record file: a JSON metadata block
// between delimiter lines, a heading, optional reference lines and the content.
func encodeRecord(e *domain.Entry) ([]byte, error) {
	header := *e
	header.Filename = ""
	if header.Tags == nil {
		header.Tags = []string{}
	}

	meta, err := marshalJSON(header)
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}

	parts := []string{
		headerDelimiter + "\n" + string(meta) + "\n" + headerDelimiter + "\n",
		"# " + headingText(e.Title) + "\n",
	}
	if e.URL != "" {
		parts = append(parts, sourcePrefix+e.URL+"\n")
	}
	if e.Attachment != "" {
		parts = append(parts, attachmentPrefix+"`"+e.Attachment+"`\n")
	}
	parts = append(parts, e.Content)

	text := strings.TrimSpace(strings.Join(parts, "\n")) + "\n"
	return []byte(text), nil
}

// decodeRecord parses a record file back into an entry, content included.
func decodeRecord(data []byte) (*domain.Entry, error) {
	text := string(data)
	if !strings.HasPrefix(text, headerDelimiter+"\n") {
		return nil, errMissingHeader
	}
	rest := text[len(headerDelimiter)+1:]

	var header, body string
	closing := "\n" + headerDelimiter + "\n"
	if end := strings.Index(rest, closing); end >= 0 {
		header, body = rest[:end], rest[end+len(closing):]
	} else if strings.HasSuffix(rest, "\n"+headerDelimiter) {
		header = strings.TrimSuffix(rest, "\n"+headerDelimiter)
	} else {
		return nil, errUnterminatedHeader
	}

	var e domain.Entry
	if err := json.Unmarshal([]byte(header), &e); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if strings.TrimSpace(e.Fingerprint) == "" {
		return nil, errMissingFingerprint
	}
	e.Content = decodeBody(body, &e)
	return &e, nil
}

// decodeBody strips the heading and the reference lines the header says
// are present, returning the raw content.
func decodeBody(body string, e *domain.Entry) string {
	rest := strings.TrimPrefix(body, "\n")
	if strings.HasPrefix(rest, "# ") {
		rest = dropLine(rest)
	}
	if e.URL != "" && strings.HasPrefix(rest, sourcePrefix) {
		rest = dropLine(rest)
	}
	if e.Attachment != "" && strings.HasPrefix(rest, attachmentPrefix) {
		rest = dropLine(rest)
	}
	return strings.TrimSuffix(rest, "\n")
}

// dropLine removes the first line and the blank separator after it.
func dropLine(s string) string {
	i := strings.IndexByte(s, '\n')
	if i < 0 {
		return ""
	}
	return strings.TrimPrefix(s[i+1:], "\n")
}

// headingText keeps multi-line titles on a single heading line.
func headingText(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

// marshalJSON indents with two spaces and leaves non-ASCII and HTML
// characters unescaped so record files stay readable.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
