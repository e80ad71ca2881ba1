package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ai-docview/internal/entity"
	"ai-docview/internal/repository/contract"
)

// FileSessionRepository keeps the session as a 0600 JSON file so separate
// CLI invocations share it.
type FileSessionRepository struct {
	path string
}

var _ contract.SessionRepository = (*FileSessionRepository)(nil)

func NewFileSessionRepository(path string) *FileSessionRepository {
	return &FileSessionRepository{path: path}
}

func (r *FileSessionRepository) Load(ctx context.Context) (*entity.SessionRecord, error) {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var record entity.SessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", r.path, err)
	}
	return &record, nil
}

// Save writes through a temp file and rename so a crash never leaves a
// half-written session behind.
func (r *FileSessionRepository) Save(ctx context.Context, record *entity.SessionRecord) error {
	raw, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return os.Rename(tmp.Name(), r.path)
}

func (r *FileSessionRepository) Delete(ctx context.Context) error {
	err := os.Remove(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
