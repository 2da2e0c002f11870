// Package blobstore persists captured face images in Supabase Storage.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/i-m-alive/Visitor-Log-Book/internal/config"
)

// SupabaseStore uploads images to a Supabase Storage bucket and hands back
// the public object URL.
type SupabaseStore struct {
	baseURL string
	key     string
	bucket  string
	client  *http.Client
}

// NewSupabaseStore creates a store from the Supabase config. Returns an
// error when the URL or key is missing so the caller can decide whether to
// run without photo storage.
func NewSupabaseStore(cfg *config.SupabaseConfig) (*SupabaseStore, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, errors.New("supabase URL and key are required")
	}
	return &SupabaseStore{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		key:     cfg.Key,
		bucket:  cfg.Bucket,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Store uploads the image under a random name and returns its public URL.
func (s *SupabaseStore) Store(ctx context.Context, image []byte) (string, error) {
	name := uuid.NewString() + ".jpg"
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("storage API error (status %d): %s", resp.StatusCode, string(body))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, name), nil
}
