package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var _ Backend = (*FileStore)(nil)

var validFileKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileStore keeps every key in its own <key>.json file under root.
type FileStore struct {
	root string
	mu   sync.RWMutex
}

func NewFileStore(root string) (*FileStore, error) {
	if err := pkg.EnsureDir(root); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(key string) (string, error) {
	if !validFileKey.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, key+".json"), nil
}

func (s *FileStore) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "kvstore.file.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	path, err := s.path(key)
	if err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), true, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "kvstore.file.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return atomicWriteFile(path, []byte(value), 0o644)
}

func (s *FileStore) Close() error {
	return nil
}

// atomicWriteFile writes to a temp file in the target dir and renames it over filename.
func atomicWriteFile(filename string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(filename)
	tempFile, err := os.CreateTemp(dir, ".tmp-kv-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	success := false
	defer func() {
		if success {
			return
		}
		if rmErr := os.Remove(tempFile.Name()); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warnf("remove temp file %s: %s", tempFile.Name(), rmErr)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tempFile.Name(), perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tempFile.Name(), filename); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}
