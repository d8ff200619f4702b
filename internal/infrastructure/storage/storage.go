// Package storage provides object storage implementations for asset blobs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrStorageKeyRequired is returned for an empty storage key
var ErrStorageKeyRequired = errors.New("storage key is required")

// ObjectStorage is a flat key/value blob store
type ObjectStorage interface {
	Put(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// Ensure LocalObjectStorage implements ObjectStorage
var _ ObjectStorage = (*LocalObjectStorage)(nil)

// LocalObjectStorage keeps blobs on the local filesystem. It serves
// development setups without an S3 endpoint.
type LocalObjectStorage struct {
	root    string
	baseURL string
}

// NewLocalObjectStorage creates the root directory if needed. Download URLs
// are baseURL + "/" + key, or file:// URLs when baseURL is empty.
func NewLocalObjectStorage(root, baseURL string) (*LocalObjectStorage, error) {
	if root == "" {
		return nil, errors.New("storage root directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalObjectStorage{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalObjectStorage) pathFor(storageKey string) (string, error) {
	if storageKey == "" {
		return "", ErrStorageKeyRequired
	}
	rel := filepath.FromSlash(storageKey)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("invalid storage key %q", storageKey)
	}
	return filepath.Join(s.root, rel), nil
}

// Put writes data under storageKey
func (s *LocalObjectStorage) Put(ctx context.Context, storageKey string, data []byte, contentType string) error {
	p, err := s.pathFor(storageKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// GenerateDownloadURL returns a stable URL for the key. Local URLs do not
// expire; the returned time only mirrors the requested lifetime.
func (s *LocalObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	p, err := s.pathFor(storageKey)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().Add(expiresIn)
	if s.baseURL == "" {
		u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
		return u.String(), expiresAt, nil
	}
	return s.baseURL + "/" + path.Clean(storageKey), expiresAt, nil
}

// DeleteObject removes the blob. Missing blobs are not an error.
func (s *LocalObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	p, err := s.pathFor(storageKey)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// ObjectExists reports whether the blob exists
func (s *LocalObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	p, err := s.pathFor(storageKey)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	}
	return false, fmt.Errorf("failed to check object existence: %w", err)
}
