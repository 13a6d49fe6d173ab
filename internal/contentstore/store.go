package contentstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("artifact not found")
	ErrInvalidKey = errors.New("invalid storage key")
)

// RawArtifact describes the outcome of a PutIfChanged call.
type RawArtifact struct {
	Key         string    `json:"key"`
	ContentHash string    `json:"content_hash"`
	ByteSize    int       `json:"byte_size"`
	Changed     bool      `json:"changed"`
	WrittenAt   time.Time `json:"timestamp"`
}

// FileStore keeps raw payloads under a root directory, one file per key.
type FileStore struct {
	root string
	now  func() time.Time
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root, now: time.Now}
}

func (s *FileStore) Root() string {
	return s.root
}

// HashBytes returns the hex sha256 of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// PutIfChanged writes payload at key unless the stored bytes already hash the same.
func (s *FileStore) PutIfChanged(ctx context.Context, key string, payload []byte) (RawArtifact, error) {
	if err := ctx.Err(); err != nil {
		return RawArtifact{}, err
	}
	path, err := s.path(key)
	if err != nil {
		return RawArtifact{}, err
	}

	art := RawArtifact{
		Key:         key,
		ContentHash: HashBytes(payload),
		ByteSize:    len(payload),
		WrittenAt:   s.now().UTC(),
	}

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if HashBytes(existing) == art.ContentHash {
			return art, nil
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return RawArtifact{}, fmt.Errorf("read %s: %w", key, err)
	}

	if err := WriteAtomic(path, payload); err != nil {
		return RawArtifact{}, fmt.Errorf("write %s: %w", key, err)
	}
	art.Changed = true
	return art, nil
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return b, nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || filepath.IsAbs(key) || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(filepath.ToSlash(key), "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// WriteAtomic replaces path with data via a temp file in the same directory.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
