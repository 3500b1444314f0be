package profileimages

import (
	"bytes"
	"context"
	"fmt"

	"learning-backend/internal/shared/metrics"
	"learning-backend/internal/shared/storage/object"
	"learning-backend/internal/shared/util"
)

// Service runs the upload pipeline: validate, thumbnail per configured
// dimension, and write each thumbnail to the object store under a
// deterministic per-user key. Store failures are not handled here; they
// propagate to the HTTP layer.
type Service struct {
	Store object.ObjectStore
}

// StorageKey returns the deterministic object key for a user's thumbnail at
// the given dimension. Repeat uploads for the same user map to the same keys,
// so new images overwrite old ones instead of accumulating.
func StorageKey(username string, dim int, imageType ImageType) string {
	return fmt.Sprintf("profile-images/%s_profile_%d.%s", util.HashUserKey(username), dim, imageType)
}

// ProcessUpload validates the upload and, if accepted, stores one JPEG
// thumbnail per entry in ThumbnailSizes. The returned Result carries the
// rejection reason when the upload is refused; the error return covers
// stream, decode, and storage failures only.
func (s *Service) ProcessUpload(ctx context.Context, username string, upload Upload) ([]string, Result, error) {
	result, err := Validate(upload)
	if err != nil {
		return nil, Result{}, err
	}
	if !result.OK() {
		return nil, result, nil
	}

	var paths []string
	for _, dim := range ThumbnailSizes {
		thumb, err := Thumbnail(upload.Content, dim)
		if err != nil {
			return nil, result, err
		}

		key := StorageKey(username, dim, result.Type)
		exists, err := s.Store.Exists(ctx, key)
		if err != nil {
			return nil, result, err
		}
		if exists {
			if err := s.Store.Delete(ctx, key); err != nil {
				return nil, result, err
			}
		}

		path, err := s.Store.Put(ctx, key, "image/jpeg", bytes.NewReader(thumb))
		if err != nil {
			return nil, result, err
		}
		metrics.IncThumbnailWritten()
		paths = append(paths, path)
	}

	return paths, result, nil
}
