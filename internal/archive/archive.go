// Package archive keeps a copy of every delivered message as an .eml file.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/shineum/courier/internal/email"
	"github.com/shineum/courier/internal/render"
)

// Store writes rendered messages into a directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created on first Save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Save renders msg and writes it to <dir>/<YYYYMMDD-HHMMSS>-<uuid>.eml,
// returning the file path.
func (s *Store) Save(msg *email.Message, sentAt time.Time) (string, error) {
	raw, err := render.Raw(msg)
	if err != nil {
		return "", fmt.Errorf("failed to render message for archive: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.eml", sentAt.Format("20060102-150405"), uuid.NewString())
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}
	return path, nil
}
