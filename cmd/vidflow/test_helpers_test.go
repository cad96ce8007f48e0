package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vidflow/internal/activity"
	"vidflow/internal/config"
	"vidflow/internal/daemon"
	"vidflow/internal/engine"
	"vidflow/internal/instance"
	"vidflow/internal/stages"
	"vidflow/internal/starter"
	"vidflow/internal/status"
	"vidflow/internal/testsupport"
)

const blobCreatedEvent = `{
	"url": "https://account.blob.example.net/videos/demo.mp4",
	"subject": "/blobServices/default/containers/videos/blobs/demo.mp4",
	"eventType": "Microsoft.Storage.BlobCreated",
	"eventTime": "2026-03-01T10:00:00Z",
	"data": {"contentType": "video/mp4", "contentLength": 12582912}
}`

type cliTestEnv struct {
	cfg     *config.Config
	store   *instance.Store
	apiAddr string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	registry := activity.NewRegistry()
	stages.NewActivities(nil, nil, nil, nil, nil).Register(registry)
	eng := engine.New(store, registry, nil)
	manager := engine.NewManager(cfg, store, eng, nil)

	d, err := daemon.New(cfg, store, manager, starter.New(store, nil), status.NewService(store, nil), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon start: %v", err)
	}
	t.Cleanup(d.Stop)

	addr := d.APIAddr()
	if addr == "" {
		t.Fatal("daemon did not bind an API address")
	}
	return &cliTestEnv{cfg: cfg, store: store, apiAddr: addr}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--api", env.apiAddr}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeEventFile(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "event.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write event file: %v", err)
	}
	return path
}

func waitForInstanceStatus(t *testing.T, env *cliTestEnv, instanceID string, want instance.Status) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		record, err := env.store.Get(context.Background(), instanceID)
		if err == nil && record.Status == want {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("instance %s never reached status %s", instanceID, want)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
