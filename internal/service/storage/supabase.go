// internal/service/storage/supabase.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SupabaseStore uploads through the Supabase Storage REST API with the
// service-role key.
type SupabaseStore struct {
	baseURL string
	key     string
	bucket  string
	client  *http.Client
}

func NewSupabaseStore(baseURL, serviceRoleKey, bucket string) *SupabaseStore {
	return &SupabaseStore{
		baseURL: baseURL,
		key:     serviceRoleKey,
		bucket:  bucket,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SupabaseStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if s.baseURL == "" || s.key == "" {
		return "", fmt.Errorf("supabase storage is not configured")
	}

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return s.PublicURL(key), nil
}

func (s *SupabaseStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key)
}
