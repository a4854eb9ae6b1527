package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/lhartley/sparring/internal/errors"
	"github.com/lhartley/sparring/internal/logging"
)

// Info is a List entry: enough to render one line per stored session
// without loading full transcripts.
type Info struct {
	Name      string
	Topic     string
	TurnCount int
	StartTime string
}

// Store persists and retrieves debate records.
type Store interface {
	// Save writes the record and returns the path it was written to.
	Save(ctx context.Context, rec *Record) (string, error)

	// Load reads a record by file name. The ".json" suffix is optional.
	Load(ctx context.Context, name string) (*Record, error)

	// List returns metadata for every stored record, newest first.
	List(ctx context.Context) ([]Info, error)
}

// FileStore is a Store backed by a directory of JSON files, one file
// per completed debate.
type FileStore struct {
	dir    string
	logger *logging.Logger
}

// NewFileStore creates the directory if needed and returns a store
// rooted at it.
func NewFileStore(dir string, logger *logging.Logger) (*FileStore, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.NewStorageError("create session directory", err).WithPath(dir)
	}
	return &FileStore{
		dir:    dir,
		logger: logger.WithComponent("session"),
	}, nil
}

// Dir returns the directory records are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes rec to its derived file name. The write is atomic so a
// crash mid-save never leaves a truncated record on disk.
func (s *FileStore) Save(ctx context.Context, rec *Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", apperrors.NewStorageError("marshal record", err)
	}

	path := filepath.Join(s.dir, rec.Filename())
	if err := atomicWriteFile(path, data, 0644); err != nil {
		return "", apperrors.NewStorageError("write record", err).WithPath(path)
	}

	s.logger.Info("session saved", "path", path, "turns", rec.TurnCount)
	return path, nil
}

// Load reads one record back by file name.
func (s *FileStore) Load(ctx context.Context, name string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}

	path := filepath.Join(s.dir, filepath.Base(name))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("session", name)
		}
		return nil, apperrors.NewStorageError("read record", err).WithPath(path)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, apperrors.NewStorageError("decode record", err).WithPath(path)
	}
	return &rec, nil
}

// List scans the store directory and returns one Info per record,
// newest first. Files that fail to parse are skipped with a warning so
// a single corrupt record does not hide the rest.
func (s *FileStore) List(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.NewStorageError("read session directory", err).WithPath(s.dir)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		rec, err := s.Load(ctx, entry.Name())
		if err != nil {
			s.logger.Warn("skipping unreadable session record", "file", entry.Name(), "error", err)
			continue
		}
		infos = append(infos, Info{
			Name:      entry.Name(),
			Topic:     rec.Topic,
			TurnCount: rec.TurnCount,
			StartTime: rec.StartTime.Format("2006-01-02 15:04:05"),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].StartTime > infos[j].StartTime })
	return infos, nil
}

// atomicWriteFile writes data to a temporary file in the same directory
// and renames it into place, so the target is never partially written.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}
