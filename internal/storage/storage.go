// Package storage keeps uploaded files in public buckets.
package storage

import (
	"context"
	"mime"
	"net/http"

	"github.com/google/uuid"

	"label-cabinet/backstage/internal/constants"
)

// ObjectStorage stores objects under bucket/path and exposes them by public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error)
	PublicURL(bucket, objectPath string) string
	Delete(ctx context.Context, bucket string, paths []string) error
}

const (
	MiB = 1 << 20

	MaxAvatarSize     = 5 * MiB
	MaxCoverSize      = 10 * MiB
	MaxAttachmentSize = 10 * MiB
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var attachmentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
	"application/zip": true,
	"text/plain":      true,
	"audio/mpeg":      true,
	"audio/wave":      true,
	"application/ogg": true,
}

// Policy is the upload rule of one bucket.
type Policy struct {
	MaxSize int64
	Allowed map[string]bool
}

var policies = map[string]Policy{
	constants.BucketAvatars:           {MaxSize: MaxAvatarSize, Allowed: imageTypes},
	constants.BucketReleases:          {MaxSize: MaxCoverSize, Allowed: imageTypes},
	constants.BucketTicketAttachments: {MaxSize: MaxAttachmentSize, Allowed: attachmentTypes},
}

// PolicyFor returns the upload policy of a bucket.
func PolicyFor(bucket string) (Policy, bool) {
	p, ok := policies[bucket]
	return p, ok
}

// Sniff detects the media type of data without parameters.
func Sniff(data []byte) string {
	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return "application/octet-stream"
	}
	return mediaType
}

// Validate checks size and sniffed content type against the bucket policy
// and returns the content type to store.
func Validate(bucket string, data []byte) (string, error) {
	policy, ok := PolicyFor(bucket)
	if !ok {
		return "", constants.Invalid("unknown bucket %q", bucket)
	}
	if len(data) == 0 {
		return "", constants.Invalid("empty file")
	}
	if int64(len(data)) > policy.MaxSize {
		return "", constants.Invalid("file exceeds %d MiB", policy.MaxSize/MiB)
	}

	contentType := Sniff(data)
	if !policy.Allowed[contentType] {
		return "", constants.Invalid("file type %s not allowed", contentType)
	}
	return contentType, nil
}

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
	"application/zip": ".zip",
	"text/plain":      ".txt",
	"audio/mpeg":      ".mp3",
	"audio/wave":      ".wav",
	"application/ogg": ".ogg",
}

// ExtensionFor maps a sniffed content type to the extension objects are
// stored under. Unknown types get no extension.
func ExtensionFor(contentType string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// ObjectPath builds a collision-free key under the owner's folder. The
// extension follows the sniffed content type, never the client's file name.
func ObjectPath(ownerID, contentType string) string {
	return ownerID + "/" + uuid.New().String() + ExtensionFor(contentType)
}
