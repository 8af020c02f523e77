package storage

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes objects below a directory that the HTTP server
// exposes under /files/.
type LocalStorage struct {
	root    string
	baseURL string
}

var _ ObjectStorage = (*LocalStorage)(nil)

func NewLocalStorage(root, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStorage{root: root, baseURL: strings.TrimRight(publicURL, "/") + "/files"}, nil
}

// Root is the directory served under /files/.
func (s *LocalStorage) Root() string { return s.root }

func (s *LocalStorage) resolve(bucket, objectPath string) (string, error) {
	full := filepath.Join(s.root, bucket, filepath.FromSlash(objectPath))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	return full, nil
}

func (s *LocalStorage) Upload(_ context.Context, bucket, objectPath string, data []byte, _ string) (string, error) {
	full, err := s.resolve(bucket, objectPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	return s.PublicURL(bucket, objectPath), nil
}

func (s *LocalStorage) PublicURL(bucket, objectPath string) string {
	return s.baseURL + "/" + bucket + "/" + objectPath
}

func (s *LocalStorage) Delete(_ context.Context, bucket string, paths []string) error {
	for _, p := range paths {
		full, err := s.resolve(bucket, p)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete object: %w", err)
		}
	}
	return nil
}

// FileServer serves the objects below root. Only images render inline;
// everything else is sent as a download.
func FileServer(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if !strings.HasPrefix(mime.TypeByExtension(path.Ext(r.URL.Path)), "image/") {
			w.Header().Set("Content-Disposition", "attachment")
		}
		files.ServeHTTP(w, r)
	})
}
