package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running daemon over its HTTP API. It is what the CLI
// uses; all methods return typed views rather than raw payloads.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client against the daemon bind address. The address may
// be "host:port" or a full http URL.
func NewClient(address string) *Client {
	base := strings.TrimRight(address, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("daemon: %s (HTTP %d)", payload.Error, resp.StatusCode)
	}
	return fmt.Errorf("daemon returned HTTP %d", resp.StatusCode)
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var status StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListProjects fetches all registered projects.
func (c *Client) ListProjects(ctx context.Context) ([]ProjectView, error) {
	var list ProjectListResponse
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &list); err != nil {
		return nil, err
	}
	return list.Projects, nil
}

// CreateProject registers a new project.
func (c *Client) CreateProject(ctx context.Context, name string) (*ProjectView, error) {
	var view ProjectView
	if err := c.do(ctx, http.MethodPost, "/api/projects", CreateProjectRequest{Name: name}, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// DeleteProject removes a project and its cataloged files.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/projects/%d", id), nil, nil)
}

// ListFiles fetches cataloged files for a project.
func (c *Client) ListFiles(ctx context.Context, projectID int64) ([]FileView, error) {
	var list FileListResponse
	path := "/api/files?project_id=" + url.QueryEscape(fmt.Sprint(projectID))
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list.Files, nil
}

// GetFile fetches a single cataloged file.
func (c *Client) GetFile(ctx context.Context, id int64) (*FileView, error) {
	var view FileView
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/files/%d", id), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Reconcile triggers a reconcile pass for one project.
func (c *Client) Reconcile(ctx context.Context, projectID int64) (*ReconcileResponse, error) {
	var result ReconcileResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/projects/%d/reconcile", projectID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RetryFile requeues a permanently failed file.
func (c *Client) RetryFile(ctx context.Context, id int64) (*FileView, error) {
	var view FileView
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/files/%d/retry", id), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ListSessions fetches active upload sessions.
func (c *Client) ListSessions(ctx context.Context) ([]SessionView, error) {
	var list SessionListResponse
	if err := c.do(ctx, http.MethodGet, "/api/uploads", nil, &list); err != nil {
		return nil, err
	}
	return list.Sessions, nil
}
