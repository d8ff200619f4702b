package persistence

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/content"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// Ensure DocumentAssetStore implements content.AssetStore
var _ content.AssetStore = (*DocumentAssetStore)(nil)

// DocumentAssetStore writes asset bytes to object storage and records an
// asset document pointing at them
type DocumentAssetStore struct {
	docs    content.Store
	objects storage.ObjectStorage
	logger  *zap.Logger
}

// NewDocumentAssetStore creates a new DocumentAssetStore
func NewDocumentAssetStore(docs content.Store, objects storage.ObjectStorage, logger *zap.Logger) *DocumentAssetStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentAssetStore{docs: docs, objects: objects, logger: logger}
}

// Upload stores data under "<kind>s/<assetID>-<filename>"
func (s *DocumentAssetStore) Upload(ctx context.Context, kind content.AssetKind, data []byte, opts content.UploadOptions) (*content.Asset, error) {
	if kind != content.AssetKindFile && kind != content.AssetKindImage {
		return nil, fmt.Errorf("content: unsupported asset kind %q", kind)
	}
	if len(data) == 0 {
		return nil, errors.New("content: asset data is empty")
	}

	filename := sanitizeFilename(opts.Filename)
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	assetID := fmt.Sprintf("%s-%s", kind, uuid.NewString())
	key := fmt.Sprintf("%ss/%s-%s", kind, assetID, filename)

	if err := s.objects.Put(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("content: failed to store asset blob: %w", err)
	}

	docType := content.DocumentTypeFileAsset
	if kind == content.AssetKindImage {
		docType = "imageAsset"
	}
	_, err := s.docs.Create(ctx, content.Document{
		content.FieldID:    assetID,
		content.FieldType:  docType,
		"originalFilename": filename,
		"mimeType":         contentType,
		"size":             len(data),
		"storageKey":       key,
	})
	if err != nil {
		// Keep the blob store free of orphans
		if delErr := s.objects.DeleteObject(ctx, key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned asset blob",
				zap.String("storage_key", key),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("content: failed to record asset: %w", err)
	}

	asset := &content.Asset{
		ID:          assetID,
		Kind:        kind,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		StorageKey:  key,
	}
	if u, _, err := s.objects.GenerateDownloadURL(ctx, key, 0); err == nil {
		asset.URL = u
	} else {
		s.logger.Debug("No download URL for asset", zap.String("asset_id", assetID), zap.Error(err))
	}

	s.logger.Info("Asset uploaded",
		zap.String("asset_id", assetID),
		zap.String("storage_key", key),
		zap.Int("bytes", len(data)))
	return asset, nil
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
