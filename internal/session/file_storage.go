package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// FileStorage persists entries as one JSON document on disk. When a key is
// configured the document is sealed with NaCl secretbox.
type FileStorage struct {
	mu   sync.Mutex
	path string
	key  *[32]byte
}

// NewFileStorage prepares the parent directory and returns the storage.
// An empty secret disables encryption.
func NewFileStorage(path, secret string) (*FileStorage, error) {
	if path == "" {
		return nil, errors.New("session file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	fs := &FileStorage{path: path}
	if secret != "" {
		key := sha256.Sum256([]byte(secret))
		fs.key = &key
	}
	return fs, nil
}

func (f *FileStorage) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return nil, err
	}
	val, ok := entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return val, nil
}

func (f *FileStorage) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	entries[key] = value
	return f.save(entries)
}

func (f *FileStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	if len(entries) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		return nil
	}
	return f.save(entries)
}

func (f *FileStorage) load() (map[string][]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string][]byte), nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if f.key != nil {
		data, err = f.open(data)
		if err != nil {
			return nil, err
		}
	}
	entries := make(map[string][]byte)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session file: %w", err)
	}
	return entries, nil
}

func (f *FileStorage) save(entries map[string][]byte) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}
	if f.key != nil {
		data, err = f.seal(data)
		if err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (f *FileStorage) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, f.key), nil
}

func (f *FileStorage) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize {
		return nil, errors.New("session file is truncated")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, f.key)
	if !ok {
		return nil, errors.New("session file could not be decrypted")
	}
	return plain, nil
}
