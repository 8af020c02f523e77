package services

import (
	"context"
	"path"

	"label-cabinet/backstage/internal/models/dtos"
	"label-cabinet/backstage/internal/storage"
)

// storeUpload validates a file against the bucket policy and stores it under the owner's folder.
func storeUpload(ctx context.Context, store storage.ObjectStorage, bucket, ownerID, fileName string, data []byte) (*dtos.UploadResponse, error) {
	contentType, err := storage.Validate(bucket, data)
	if err != nil {
		return nil, err
	}

	url, err := store.Upload(ctx, bucket, storage.ObjectPath(ownerID, contentType), data, contentType)
	if err != nil {
		return nil, err
	}

	return &dtos.UploadResponse{
		FileName:    path.Base(fileName),
		URL:         url,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}
