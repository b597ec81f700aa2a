package lcu

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// SnapshotWriter keeps the most recent raw response of each resource on disk
// for offline replay. Writes are best-effort: errors are logged, never returned.
type SnapshotWriter struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewSnapshotWriter creates the snapshot directory if needed
func NewSnapshotWriter(dir string, logger *zap.Logger) (*SnapshotWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &SnapshotWriter{dir: dir, logger: logger.Sugar()}, nil
}

// SnapshotPath returns the file a resource is persisted to
func SnapshotPath(dir string, res Resource) string {
	return filepath.Join(dir, string(res)+".json")
}

// Save overwrites the snapshot for res. The body goes to a temp file first
// and is renamed into place so readers never see a partial file.
func (w *SnapshotWriter) Save(res Resource, body []byte) {
	target := SnapshotPath(w.dir, res)

	tmp, err := os.CreateTemp(w.dir, string(res)+"-*.tmp")
	if err != nil {
		w.logger.Warnw("Snapshot write failed", "resource", res, "error", err)
		return
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		w.logger.Warnw("Snapshot write failed", "resource", res, "error", err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		w.logger.Warnw("Snapshot write failed", "resource", res, "error", err)
		return
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		w.logger.Warnw("Snapshot rename failed", "resource", res, "error", err)
	}
}

// FileSource serves previously saved snapshots as if they came from the
// live client.
type FileSource struct {
	dir string
}

// NewFileSource reads snapshots from dir
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Fetch returns the saved body of a resource
func (s *FileSource) Fetch(_ context.Context, res Resource) ([]byte, error) {
	body, err := os.ReadFile(SnapshotPath(s.dir, res))
	if err != nil {
		return nil, &FetchError{Resource: res, Err: err}
	}
	return body, nil
}

// GetAllPlayers reads the saved player list
func (s *FileSource) GetAllPlayers(ctx context.Context) ([]Player, error) {
	body, err := s.Fetch(ctx, ResourcePlayerList)
	if err != nil {
		return nil, err
	}
	return DecodePlayers(body)
}

// GetEvents reads the saved event log
func (s *FileSource) GetEvents(ctx context.Context) ([]Event, error) {
	body, err := s.Fetch(ctx, ResourceEventData)
	if err != nil {
		return nil, err
	}
	return DecodeEvents(body)
}

// GetGameStats reads the saved game stats
func (s *FileSource) GetGameStats(ctx context.Context) (GameStats, error) {
	body, err := s.Fetch(ctx, ResourceGameStats)
	if err != nil {
		return GameStats{}, err
	}
	return DecodeGameStats(body)
}
