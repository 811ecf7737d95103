package daemon_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"shuttle/internal/api"
	"shuttle/internal/catalog"
	"shuttle/internal/config"
	"shuttle/internal/daemon"
	"shuttle/internal/testsupport"
)

type harness struct {
	t      *testing.T
	cfg    *config.Config
	store  *catalog.Store
	server *httptest.Server
	client *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	server := httptest.NewServer(d.Router())
	t.Cleanup(server.Close)
	return &harness{t: t, cfg: cfg, store: store, server: server, client: server.Client()}
}

func (h *harness) request(method, path string, body []byte, headers map[string]string) *http.Response {
	h.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		h.t.Fatalf("build request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func (h *harness) createProject(name string) api.ProjectView {
	h.t.Helper()
	resp := h.request(http.MethodPost, "/api/projects", []byte(fmt.Sprintf(`{"name":%q}`, name)), nil)
	if resp.StatusCode != http.StatusCreated {
		h.t.Fatalf("create project status = %d", resp.StatusCode)
	}
	return decode[api.ProjectView](h.t, resp)
}

func TestProjectLifecycle(t *testing.T) {
	h := newHarness(t)

	project := h.createProject("demo")
	if project.Name != "demo" || project.ID == 0 {
		t.Fatalf("unexpected project %+v", project)
	}

	resp := h.request(http.MethodPost, "/api/projects", []byte(`{"name":"demo"}`), nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate project status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	resp = h.request(http.MethodGet, "/api/projects", nil, nil)
	list := decode[api.ProjectListResponse](t, resp)
	if len(list.Projects) != 1 {
		t.Fatalf("project count = %d", len(list.Projects))
	}

	resp = h.request(http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = h.request(http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUploadLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	project := h.createProject("demo")

	// Open a session for a 10-byte video.
	resp := h.request(http.MethodPost, "/api/uploads",
		[]byte(fmt.Sprintf(`{"projectId":%d,"folder":"incoming"}`, project.ID)),
		map[string]string{"Upload-Length": "10", "Upload-Name": "clip.mov", "Content-Type": "application/json"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create upload status = %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "/api/uploads/") {
		t.Fatalf("Location = %q", loc)
	}
	session := decode[api.SessionView](t, resp)

	// First chunk.
	resp = h.request(http.MethodPatch, "/api/uploads/"+session.Token,
		[]byte("abcdef"), map[string]string{"Upload-Offset": "0"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first chunk status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Upload-Offset"); got != "6" {
		t.Fatalf("offset after first chunk = %q", got)
	}
	resp.Body.Close()

	// Retrying the same chunk after a lost response is rejected with the
	// session's real offset so the client can resume.
	resp = h.request(http.MethodPatch, "/api/uploads/"+session.Token,
		[]byte("abcdef"), map[string]string{"Upload-Offset": "0"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("stale chunk status = %d, want 409", resp.StatusCode)
	}
	if got := resp.Header.Get("Upload-Offset"); got != "6" {
		t.Fatalf("conflict offset = %q, want 6", got)
	}
	resp.Body.Close()

	// HEAD reports where to resume.
	resp = h.request(http.MethodHead, "/api/uploads/"+session.Token, nil, nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Upload-Offset") != "6" {
		t.Fatalf("HEAD status/offset = %d/%q", resp.StatusCode, resp.Header.Get("Upload-Offset"))
	}
	resp.Body.Close()

	// Final chunk reaches the declared length and finalizes implicitly.
	resp = h.request(http.MethodPatch, "/api/uploads/"+session.Token,
		[]byte("ghij"), map[string]string{"Upload-Offset": "6"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("final chunk status = %d", resp.StatusCode)
	}
	fileID := resp.Header.Get("Upload-File-Id")
	if fileID == "" {
		t.Fatal("Upload-File-Id header missing after implicit finalize")
	}
	resp.Body.Close()

	// The cataloged file is a pending video in the project's incoming folder.
	resp = h.request(http.MethodGet, "/api/files/"+fileID, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get file status = %d", resp.StatusCode)
	}
	file := decode[api.FileView](t, resp)
	if file.Status != "pending" || file.Folder != "incoming" || file.Name != "clip.mov" {
		t.Fatalf("unexpected file %+v", file)
	}
	if file.Path != filepath.Join(h.cfg.Paths.LibraryDir, "demo", "incoming", "clip.mov") {
		t.Fatalf("path = %q", file.Path)
	}

	// Content delivery serves the original while conversion is pending.
	resp = h.request(http.MethodGet, "/api/files/"+fileID+"/content", nil,
		map[string]string{"Range": "bytes=0-3"})
	if resp.StatusCode != http.StatusPartialContent {
		t.Fatalf("content status = %d, want 206", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Range"); got != "bytes 0-3/10" {
		t.Fatalf("Content-Range = %q", got)
	}
	var rangeBody bytes.Buffer
	rangeBody.ReadFrom(resp.Body)
	resp.Body.Close()
	if rangeBody.String() != "abcd" {
		t.Fatalf("range body = %q", rangeBody.String())
	}

	// Completing an already-finalized session is a 404.
	resp = h.request(http.MethodPost, "/api/uploads/"+session.Token+"/complete", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("complete after finalize status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestExplicitCompleteRejectsPartialUpload(t *testing.T) {
	h := newHarness(t)
	project := h.createProject("demo")

	resp := h.request(http.MethodPost, "/api/uploads",
		[]byte(fmt.Sprintf(`{"projectId":%d,"folder":"outgoing"}`, project.ID)),
		map[string]string{"Upload-Length": "8", "Upload-Name": "cut.mp4", "Content-Type": "application/json"})
	session := decode[api.SessionView](t, resp)

	resp = h.request(http.MethodPatch, "/api/uploads/"+session.Token,
		[]byte("abc"), map[string]string{"Upload-Offset": "0"})
	resp.Body.Close()

	resp = h.request(http.MethodPost, "/api/uploads/"+session.Token+"/complete", nil, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("partial complete status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	resp = h.request(http.MethodDelete, "/api/uploads/"+session.Token, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("abort status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReconcileEndpoint(t *testing.T) {
	h := newHarness(t)
	project := h.createProject("demo")

	incoming := filepath.Join(h.cfg.Paths.LibraryDir, "demo", "incoming")
	testsupport.WriteFile(t, filepath.Join(incoming, "found.mov"), 64)

	resp := h.request(http.MethodPost, fmt.Sprintf("/api/projects/%d/reconcile", project.ID), nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reconcile status = %d", resp.StatusCode)
	}
	result := decode[api.ReconcileResponse](t, resp)
	if result.Added != 1 {
		t.Fatalf("added = %d, want 1", result.Added)
	}

	resp = h.request(http.MethodPost, "/api/projects/999/reconcile", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown project reconcile status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRetryEndpointRequiresFailedState(t *testing.T) {
	h := newHarness(t)
	project := h.createProject("demo")

	incoming := filepath.Join(h.cfg.Paths.LibraryDir, "demo", "incoming")
	testsupport.WriteFile(t, filepath.Join(incoming, "clip.mov"), 64)
	resp := h.request(http.MethodPost, fmt.Sprintf("/api/projects/%d/reconcile", project.ID), nil, nil)
	resp.Body.Close()

	resp = h.request(http.MethodGet, fmt.Sprintf("/api/files?project_id=%d", project.ID), nil, nil)
	files := decode[api.FileListResponse](t, resp)
	if len(files.Files) != 1 {
		t.Fatalf("file count = %d", len(files.Files))
	}

	resp = h.request(http.MethodPost, fmt.Sprintf("/api/files/%d/retry", files.Files[0].ID), nil, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("retry pending file status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	resp = h.request(http.MethodPost, "/api/files/999/retry", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("retry unknown file status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestStatusAndMetricsEndpoints(t *testing.T) {
	h := newHarness(t)
	h.createProject("demo")

	resp := h.request(http.MethodGet, "/api/status", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status endpoint = %d", resp.StatusCode)
	}
	status := decode[api.StatusResponse](t, resp)
	if status.Projects != 1 {
		t.Fatalf("projects = %d, want 1", status.Projects)
	}
	if status.DatabasePath == "" || status.LockFilePath == "" {
		t.Fatalf("paths missing in status %+v", status)
	}

	resp = h.request(http.MethodGet, "/metrics", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics endpoint = %d", resp.StatusCode)
	}
	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	resp.Body.Close()
	if !strings.Contains(body.String(), "shuttle_http_requests_total") {
		t.Fatal("expected shuttle metrics in exposition")
	}
}
