package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	updateFileName    = "last_update_id.json"
	broadcastFileName = "last_broadcast.json"
)

type updateRecord struct {
	LastUpdateID int64 `json:"last_update_id"`
}

type broadcastRecord struct {
	Date string `json:"date"`
}

// FileStore keeps state as small JSON files under a directory. Corrupt or
// missing files read as "no value recorded".
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore creates dir if needed and returns a store writing into it.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("state: create dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) LastUpdateID() (int64, bool, error) {
	var rec updateRecord
	ok, err := s.read(updateFileName, &rec)
	if err != nil || !ok {
		return 0, false, err
	}
	return rec.LastUpdateID, true, nil
}

func (s *FileStore) SetLastUpdateID(id int64) error {
	return s.write(updateFileName, updateRecord{LastUpdateID: id})
}

func (s *FileStore) LastBroadcastDate() (string, error) {
	var rec broadcastRecord
	ok, err := s.read(broadcastFileName, &rec)
	if err != nil || !ok {
		return "", err
	}
	return rec.Date, nil
}

func (s *FileStore) SetLastBroadcastDate(date string) error {
	return s.write(broadcastFileName, broadcastRecord{Date: date})
}

func (s *FileStore) Close() error { return nil }

// read unmarshals the named file into v. ok is false when the file does not
// exist or does not parse.
func (s *FileStore) read(name string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("state: read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("Ignoring corrupt state file",
			zap.String("file", name),
			zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (s *FileStore) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("state: write %s: %w", name, err)
	}
	return nil
}
