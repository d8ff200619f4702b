package content

import "context"

// AssetKind distinguishes binary asset categories
type AssetKind string

const (
	AssetKindFile  AssetKind = "file"
	AssetKindImage AssetKind = "image"
)

// DocumentTypeFileAsset is the document type recorded for file assets
const DocumentTypeFileAsset = "fileAsset"

// UploadOptions describes the uploaded bytes
type UploadOptions struct {
	Filename    string
	ContentType string
}

// Asset is a stored binary
type Asset struct {
	ID          string
	Kind        AssetKind
	Filename    string
	ContentType string
	Size        int64
	StorageKey  string
	URL         string
}

// AssetStore stores binary assets
type AssetStore interface {
	Upload(ctx context.Context, kind AssetKind, data []byte, opts UploadOptions) (*Asset, error)
}

// FileReference builds the field value that links a document to a file asset
func FileReference(assetID string) map[string]any {
	return map[string]any{
		"_type": string(AssetKindFile),
		"asset": map[string]any{"_ref": assetID},
	}
}

// AssetRefOf extracts the asset id from a reference built by FileReference.
// Returns "" when value is not a reference.
func AssetRefOf(value any) string {
	ref, ok := value.(map[string]any)
	if !ok {
		return ""
	}
	asset, ok := ref["asset"].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := asset["_ref"].(string)
	return id
}
