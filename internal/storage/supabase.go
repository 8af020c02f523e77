package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"label-cabinet/backstage/internal/common"
)

// SupabaseStorage talks to the Storage REST API with the service-role key.
type SupabaseStorage struct {
	BaseURL    string
	ServiceKey string
	Client     *http.Client
}

var _ ObjectStorage = (*SupabaseStorage)(nil)

func NewSupabaseStorage(baseURL, serviceKey string) *SupabaseStorage {
	return &SupabaseStorage{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		Client:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *SupabaseStorage) Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.BaseURL, bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	s.authorize(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")
	req.Header.Set("Cache-Control", "max-age=3600")

	if err := s.do(req); err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, objectPath, err)
	}
	return s.PublicURL(bucket, objectPath), nil
}

func (s *SupabaseStorage) PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.BaseURL, bucket, objectPath)
}

func (s *SupabaseStorage) Delete(ctx context.Context, bucket string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	body, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/storage/v1/object/%s", s.BaseURL, bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	s.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	if err := s.do(req); err != nil {
		return fmt.Errorf("delete from %s: %w", bucket, err)
	}
	return nil
}

func (s *SupabaseStorage) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.ServiceKey)
	req.Header.Set("apikey", s.ServiceKey)
}

func (s *SupabaseStorage) do(req *http.Request) error {
	common.LogHTTPRequest(req)

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("storage API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
