package testsupport

import (
	"context"
	"encoding/json"
	"testing"

	"vidflow/internal/config"
	"vidflow/internal/instance"
)

// MustOpenStore opens an instance.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *instance.Store {
	t.Helper()

	store, err := instance.Open(cfg)
	if err != nil {
		t.Fatalf("instance.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewInstance creates a pending instance for tests using the provided store.
func NewInstance(t testing.TB, store *instance.Store, id, videoName string) *instance.Record {
	t.Helper()

	input, err := json.Marshal(map[string]any{
		"blob_name":      videoName,
		"container_name": "videos",
		"blob_url":       "https://blobs.example.net/videos/" + videoName,
		"content_type":   "video/mp4",
		"content_length": 12582912,
	})
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}

	record, err := store.Create(context.Background(), id, videoName, input)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return record
}
