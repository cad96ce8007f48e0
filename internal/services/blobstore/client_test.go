package blobstore_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vidflow/internal/services"
	"vidflow/internal/services/blobstore"
)

func TestGetProperties(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		if r.URL.Path != "/videos/demo.mp4" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", "12582912")
		w.Header().Set("ETag", `"0x8DC"`)
		w.Header().Set("Last-Modified", "Wed, 21 Aug 2024 07:28:00 GMT")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := blobstore.New(server.URL, time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	props, err := client.GetProperties(context.Background(), "videos", "demo.mp4")
	if err != nil {
		t.Fatalf("GetProperties failed: %v", err)
	}
	if props.SizeBytes != 12582912 {
		t.Fatalf("unexpected size: %d", props.SizeBytes)
	}
	if props.ContentType != "video/mp4" {
		t.Fatalf("unexpected content type: %s", props.ContentType)
	}
	if props.ETag != "0x8DC" {
		t.Fatalf("expected etag quotes stripped, got %q", props.ETag)
	}
	if props.LastModified.IsZero() {
		t.Fatal("expected last modified to be parsed")
	}
}

func TestGetPropertiesNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := blobstore.New(server.URL, time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.GetProperties(context.Background(), "videos", "missing.mp4")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found classification, got %v", err)
	}
}

func TestNewRequiresAccountURL(t *testing.T) {
	if _, err := blobstore.New("   ", time.Second); err == nil {
		t.Fatal("expected error for empty account url")
	}
}
