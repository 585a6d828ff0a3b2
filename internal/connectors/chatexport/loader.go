// Package chatexport loads AI chat exports from JSON files so they can be
// reconciled with the remote like any other entry.
//
// A file holds either a JSON array of chats or an object with a "chats"
// array. Each chat is an object with optional title, ai_tool, category,
// content, url and external_id fields.
package chatexport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// DefaultPattern matches export files by base name.
const DefaultPattern = "*chats.json"

// Defaults for missing chat fields.
const (
	DefaultChatTitle = "Untitled chat"
	DefaultAITool    = "other"
)

var (
	errUnsupportedFormat = errors.New("expected a JSON array or an object with a \"chats\" array")
	errNotAnObject       = errors.New("chat is not a JSON object")
)

// Result is the outcome of loading a directory of exports.
type Result struct {
	// Files is the number of files that matched the pattern.
	Files int

	// Entries are the chats that loaded, in file then array order.
	Entries []domain.Entry

	// Errors lists files and chats that could not be loaded.
	Errors []*domain.ItemError
}

// Load walks dir recursively and loads every file whose base name matches
// pattern. Files are visited in lexical path order. A bad file or chat is
// reported in Result.Errors and loading continues; only a bad pattern or
// an unreadable dir is returned as an error.
func Load(dir, pattern string) (*Result, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %w", domain.ErrInvalidInput, pattern, err)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			logger.Warn("skipping %s: %v", path, walkErr)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewIOError(dir, err)
	}
	sort.Strings(files)

	res := &Result{Files: len(files)}
	for _, path := range files {
		logger.Debug("Scanning %s", path)
		entries, itemErrs := loadFile(path)
		res.Entries = append(res.Entries, entries...)
		res.Errors = append(res.Errors, itemErrs...)
	}
	return res, nil
}

func loadFile(path string) ([]domain.Entry, []*domain.ItemError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []*domain.ItemError{domain.NewIOError(path, err)}
	}

	chats, err := decodeChats(data)
	if err != nil {
		return nil, []*domain.ItemError{domain.NewParseError(path, err)}
	}

	var entries []domain.Entry
	var itemErrs []*domain.ItemError
	for i, raw := range chats {
		entry, err := decodeChat(raw)
		if err != nil {
			itemErrs = append(itemErrs, domain.NewParseError(fmt.Sprintf("%s[%d]", path, i), err))
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, itemErrs
}

// decodeChats accepts both export shapes.
func decodeChats(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var chats []json.RawMessage
		if err := json.Unmarshal(data, &chats); err != nil {
			return nil, err
		}
		return chats, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	raw, ok := wrapped["chats"]
	if !ok {
		return nil, errUnsupportedFormat
	}
	var chats []json.RawMessage
	if err := json.Unmarshal(raw, &chats); err != nil {
		return nil, errUnsupportedFormat
	}
	return chats, nil
}

func decodeChat(raw json.RawMessage) (*domain.Entry, error) {
	var chat map[string]any
	if err := json.Unmarshal(raw, &chat); err != nil || chat == nil {
		return nil, errNotAnObject
	}

	title := field(chat, "title")
	if title == "" {
		title = DefaultChatTitle
	}
	aiTool := domain.NormaliseCategory(field(chat, "ai_tool"))
	if aiTool == "" {
		aiTool = DefaultAITool
	}

	entry := &domain.Entry{
		Title:    title,
		Category: aiTool,
		Topic:    field(chat, "category"),
		Content:  field(chat, "content"),
		URL:      field(chat, "url"),
	}
	entry.Fingerprint = field(chat, "external_id")
	if entry.Fingerprint == "" {
		entry.Fingerprint = domain.EntryFingerprint(entry)
	}
	return entry, nil
}

// field returns chat[key] as trimmed text. Non-string scalars are
// rendered the way JSON wrote them.
func field(chat map[string]any, key string) string {
	v, ok := chat[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(out)
}
