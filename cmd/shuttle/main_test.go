package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shuttle/internal/api"
)

func stubDaemon(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return strings.TrimPrefix(server.URL, "http://")
}

func runCommand(t *testing.T, address string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--address", address))
	err := cmd.Execute()
	return out.String(), err
}

func TestProjectsListRendersTable(t *testing.T) {
	address := stubDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/projects" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(api.ProjectListResponse{Projects: []api.ProjectView{
			{ID: 1, Name: "demo", CreatedAt: "2026-03-01T12:00:00.000Z"},
		}})
	})

	out, err := runCommand(t, address, "projects", "list")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "demo") {
		t.Fatalf("output missing project name:\n%s", out)
	}
}

func TestRetryReportsNewStatus(t *testing.T) {
	address := stubDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/files/7/retry" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(api.FileView{ID: 7, Name: "clip.mov", Status: "pending"})
	})

	out, err := runCommand(t, address, "retry", "7")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "pending") {
		t.Fatalf("output missing status:\n%s", out)
	}
}

func TestDaemonErrorsSurfaceToUser(t *testing.T) {
	address := stubDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "file is not in failed state"})
	})

	_, err := runCommand(t, address, "retry", "7")
	if err == nil || !strings.Contains(err.Error(), "not in failed state") {
		t.Fatalf("expected daemon error message, got %v", err)
	}
}

func TestFormatSize(t *testing.T) {
	cases := map[int64]string{
		512:     "512 B",
		2048:    "2.0 KiB",
		5 << 20: "5.0 MiB",
		3 << 30: "3.0 GiB",
	}
	for size, want := range cases {
		if got := formatSize(size); got != want {
			t.Fatalf("formatSize(%d) = %q, want %q", size, got, want)
		}
	}
}
