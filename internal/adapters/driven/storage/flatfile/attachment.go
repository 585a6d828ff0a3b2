package flatfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// attachmentCopy is the result of copyAttachment.
type attachmentCopy struct {
	// rel is the slash-separated path relative to the root.
	rel string

	// created lists what this call created, deepest first, so that
	// discard can undo it. Empty when the destination already existed.
	created []string
}

// copyAttachment copies src into _attachments/<fingerprint>/<basename>.
// An existing destination is kept as is.
func (s *Store) copyAttachment(fingerprint, src string) (*attachmentCopy, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, domain.NewIOError(src, fmt.Errorf("attachment not found: %w", err))
	}
	if info.IsDir() {
		return nil, domain.NewIOError(src, errors.New("attachment is a directory"))
	}

	name := filepath.Base(src)
	destDir := filepath.Join(s.root, AttachmentsDir, fingerprint)
	res := &attachmentCopy{rel: AttachmentsDir + "/" + fingerprint + "/" + name}

	if _, err := os.Stat(destDir); errors.Is(err, fs.ErrNotExist) {
		res.created = append(res.created, destDir)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}

	dest := filepath.Join(destDir, name)
	if _, err := os.Stat(dest); errors.Is(err, fs.ErrNotExist) {
		if err := copyFile(src, dest, info.Mode().Perm()); err != nil {
			res.discard()
			return nil, domain.NewIOError(src, err)
		}
		res.created = append([]string{dest}, res.created...)
	}

	return res, nil
}

// discard removes whatever copyAttachment created.
func (c *attachmentCopy) discard() {
	for _, path := range c.created {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("remove %s: %v", path, err)
		}
	}
}

func copyFile(src, dest string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
