package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseStore implements ObjectStore on top of the Supabase storage API.
type SupabaseStore struct {
	client *storage_go.Client
}

// NewSupabaseStore builds a store from the project URL and service key.
func NewSupabaseStore(projectURL, serviceKey string) (*SupabaseStore, error) {
	projectURL = strings.TrimRight(strings.TrimSpace(projectURL), "/")
	if projectURL == "" {
		return nil, fmt.Errorf("storage: supabase url is required")
	}
	if strings.TrimSpace(serviceKey) == "" {
		return nil, fmt.Errorf("storage: supabase service key is required")
	}
	client := storage_go.NewClient(projectURL+"/storage/v1", serviceKey, nil)
	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	upsert := true
	_, err := s.client.UploadFile(bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("storage: upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *SupabaseStore) PublicURL(ctx context.Context, bucket, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp := s.client.GetPublicUrl(bucket, key)
	if strings.TrimSpace(resp.SignedURL) == "" {
		return "", fmt.Errorf("storage: no public url for %s/%s", bucket, key)
	}
	return resp.SignedURL, nil
}

func (s *SupabaseStore) Remove(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(bucket, []string{key}); err != nil {
		return fmt.Errorf("storage: remove %s/%s: %w", bucket, key, err)
	}
	return nil
}

var _ ObjectStore = (*SupabaseStore)(nil)
