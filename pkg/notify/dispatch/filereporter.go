package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/nimburion/notify/pkg/notify"
	"github.com/nimburion/notify/pkg/observability/logger"
)

const lockRetryDelay = 50 * time.Millisecond

// Report is one record in a report file.
type Report struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Text      string            `json:"text"`
	Extras    map[string]string `json:"extras,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// FileReporter appends events to a JSON array on disk.
type FileReporter struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
	log  logger.Logger
}

// NewFileReporter creates a file reporter writing to cfg.FilePath.
func NewFileReporter(cfg notify.FileReporterConfig, log logger.Logger) (*FileReporter, error) {
	path := strings.TrimSpace(cfg.FilePath)
	if path == "" {
		return nil, errors.New("file reporter path is required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &FileReporter{
		path: path,
		lock: flock.New(path + ".lock"),
		log:  log.With("service", "file_reporter", "file_path", path),
	}, nil
}

// Path returns the report file location.
func (r *FileReporter) Path() string {
	return r.path
}

// Send appends the event as a Report. The file is replaced atomically while
// holding an exclusive lock shared with other processes.
func (r *FileReporter) Send(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	locked, err := r.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock report file: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock report file: %s is busy", r.path)
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			r.log.Warn("failed to unlock report file", "error", err)
		}
	}()

	reports, err := ReadReports(r.path)
	if err != nil {
		return err
	}

	id := event.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := event.Time
	if created.IsZero() {
		created = time.Now()
	}
	reports = append(reports, Report{
		ID:        id,
		Type:      string(event.Type),
		Text:      event.Text,
		Extras:    event.Extras,
		CreatedAt: created.UTC(),
	})

	if err := writeReports(r.path, reports); err != nil {
		return err
	}
	r.log.WithContext(ctx).Debug("report written", "report_id", id, "reports", len(reports))
	return nil
}

// Close releases the lock handle.
func (r *FileReporter) Close() error {
	return r.lock.Close()
}

// ReadReports loads the report file at path. A missing or empty file holds
// no reports.
func ReadReports(path string) ([]Report, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []Report{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []Report{}, nil
	}
	var reports []Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("decode report file %s: %w", path, err)
	}
	return reports, nil
}

func writeReports(path string, reports []Report) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp report file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp report file: %w", err)
	}

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp report file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp report file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp report file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace report file: %w", err)
	}
	return nil
}
