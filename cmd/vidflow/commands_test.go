package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidflow/internal/instance"
	"vidflow/internal/testsupport"
)

func TestSubmitStatusAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	eventPath := writeEventFile(t, blobCreatedEvent)

	out, _, err := runCLI(t, env, "submit", eventPath)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	requireContains(t, out, "Started processing demo.mp4")
	requireContains(t, out, "Instance: ")

	instanceID := ""
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "Instance: "); ok {
			instanceID = strings.TrimSpace(rest)
		}
	}
	if instanceID == "" {
		t.Fatalf("no instance id in output %q", out)
	}

	waitForInstanceStatus(t, env, instanceID, instance.StatusCompleted)

	out, _, err = runCLI(t, env, "status", instanceID, "--history")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Instance:  "+instanceID)
	requireContains(t, out, "completed")
	requireContains(t, out, "extract-metadata")
	requireContains(t, out, "generate-insights")

	out, _, err = runCLI(t, env, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, instanceID)
	requireContains(t, out, "demo.mp4")
}

func TestSubmitSkipsNonVideoUpload(t *testing.T) {
	env := setupCLITestEnv(t)
	eventPath := writeEventFile(t, `{
		"url": "https://account.blob.example.net/videos/notes.txt",
		"subject": "/blobServices/default/containers/videos/blobs/notes.txt",
		"eventType": "Microsoft.Storage.BlobCreated",
		"eventTime": "2026-03-01T10:00:00Z",
		"data": {"contentType": "text/plain", "contentLength": 512}
	}`)

	out, _, err := runCLI(t, env, "submit", eventPath)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	requireContains(t, out, "Event skipped")
}

func TestStatusUnknownInstance(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "status", "missing-instance")
	if err == nil {
		t.Fatal("expected status of unknown instance to fail")
	}
}

func TestStatusJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.NewInstance(t, env.store, "inst-json", "clip.mp4")

	out, _, err := runCLI(t, env, "status", "inst-json", "--json")
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var view struct {
		InstanceID    string `json:"instance_id"`
		RuntimeStatus string `json:"runtime_status"`
	}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode status JSON: %v", err)
	}
	if view.InstanceID != "inst-json" {
		t.Fatalf("unexpected instance id %q", view.InstanceID)
	}
}

func TestListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "No instances found.")
}

func TestHealthCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	requireContains(t, out, "Daemon running:  true")
	requireContains(t, out, "Engine running:  true")
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "vidflow", "config.toml")

	cmd := newRootCommand()
	var stdout strings.Builder
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout.String(), "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	cmd = newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected init without --overwrite to fail on existing file")
	}
}
