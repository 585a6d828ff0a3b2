package chatexport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_BothShapes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a_chats.json"),
		`[{"title": "First", "ai_tool": "GPT", "category": "Research", "content": "one"}]`)
	writeFile(t, filepath.Join(dir, "nested", "b_chats.json"),
		`{"chats": [{"title": "Second", "ai_tool": "Claude", "content": "two"}]}`)
	writeFile(t, filepath.Join(dir, "notes.json"), `[{"title": "ignored"}]`)

	res, err := Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Entries, 2)

	first := res.Entries[0]
	assert.Equal(t, "First", first.Title)
	assert.Equal(t, "gpt", first.Category)
	assert.Equal(t, "Research", first.Topic)
	assert.Equal(t, "one", first.Content)
	assert.Equal(t, domain.EntryFingerprint(&first), first.Fingerprint)

	assert.Equal(t, "Second", res.Entries[1].Title)
	assert.Equal(t, "claude", res.Entries[1].Category)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "chats.json"), `[{"content": 42}]`)

	res, err := Load(dir, "chats.json")
	require.NoError(t, err)

	require.Len(t, res.Entries, 1)
	e := res.Entries[0]
	assert.Equal(t, DefaultChatTitle, e.Title)
	assert.Equal(t, DefaultAITool, e.Category)
	assert.Empty(t, e.Topic)
	assert.Equal(t, "42", e.Content)
}

func TestLoad_ExternalIDIsKept(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "chats.json"), `[{"title": "t", "external_id": "abc123"}]`)

	res, err := Load(dir, "chats.json")
	require.NoError(t, err)

	require.Len(t, res.Entries, 1)
	assert.Equal(t, "abc123", res.Entries[0].Fingerprint)
}

func TestLoad_BadFilesAndChatsAreReported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "1_chats.json"), `{not json`)
	writeFile(t, filepath.Join(dir, "2_chats.json"), `{"conversations": []}`)
	writeFile(t, filepath.Join(dir, "3_chats.json"), `["just a string", {"title": "ok"}]`)

	res, err := Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, 3, res.Files)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "ok", res.Entries[0].Title)

	require.Len(t, res.Errors, 3)
	for _, e := range res.Errors {
		assert.ErrorIs(t, e, domain.ErrParse)
	}
	assert.Equal(t, filepath.Join(dir, "3_chats.json")+"[0]", res.Errors[2].Path)
}

func TestLoad_InvalidPattern(t *testing.T) {
	_, err := Load(t.TempDir(), "[")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad_MissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"), "")

	assert.ErrorIs(t, err, domain.ErrIO)
}

func TestLoad_EmptyDir(t *testing.T) {
	res, err := Load(t.TempDir(), "")

	require.NoError(t, err)
	assert.Zero(t, res.Files)
	assert.Empty(t, res.Entries)
}
