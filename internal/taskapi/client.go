// Package taskapi talks to the task-tracking service.
package taskapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"focusdeck/internal/debug"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
)

const (
	DefaultTimeout = 10 * time.Second

	maxRetries   = 3
	initialDelay = 250 * time.Millisecond
	maxBodyBytes = 4 << 20
)

// ErrNoBaseURL is returned when the client has no service address.
var ErrNoBaseURL = errors.New("taskapi: no service URL configured")

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("taskapi: %s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client is safe for concurrent use.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Token:      strings.TrimSpace(token),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type listResponse struct {
	Tasks []Task `json:"tasks"`
}

// CreateRequest is the body of a task creation.
type CreateRequest struct {
	Name      string  `json:"name"`
	ProjectID *int64  `json:"project_id,omitempty"`
	LabelIDs  []int64 `json:"label_ids,omitempty"`
}

// List returns every task.
func (c *Client) List(ctx context.Context) ([]Task, error) {
	return c.do(ctx, http.MethodGet, "/api/tasks", nil)
}

// Create adds a task and returns the updated list.
func (c *Client) Create(ctx context.Context, req CreateRequest) ([]Task, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, errors.New("taskapi: task name is required")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "/api/tasks", body)
}

// Start starts the task's timer and returns the updated list.
func (c *Client) Start(ctx context.Context, id string) ([]Task, error) {
	return c.action(ctx, id, "start")
}

// Stop stops the task's timer and returns the updated list.
func (c *Client) Stop(ctx context.Context, id string) ([]Task, error) {
	return c.action(ctx, id, "stop")
}

// Delete removes the task and returns the updated list.
func (c *Client) Delete(ctx context.Context, id string) ([]Task, error) {
	return c.action(ctx, id, "delete")
}

// StopTask stops a task, discarding the list. It lets a Client serve as the
// timer's task stopper.
func (c *Client) StopTask(ctx context.Context, id string) error {
	_, err := c.Stop(ctx, id)
	return err
}

func (c *Client) action(ctx context.Context, id, verb string) ([]Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("taskapi: task id is required")
	}
	return c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/"+verb, []byte("{}"))
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]Task, error) {
	if c.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	// Only reads are retried; a repeated POST could apply twice.
	var retries uint64
	if method == http.MethodGet {
		retries = maxRetries - 1
	}

	attempt := 0
	op := func() ([]Task, error) {
		attempt++
		tasks, retry, err := c.once(ctx, method, path, body)
		if err == nil {
			return tasks, nil
		}
		if !retry {
			return nil, backoff.Permanent(err)
		}
		debug.Log("taskapi: %s %s attempt %d: %v", method, path, attempt, err)
		return nil, err
	}
	return backoff.RetryWithData(op, backoff.WithContext(backoff.WithMaxRetries(retryPolicy(), retries), ctx))
}

// retryPolicy doubles the delay from initialDelay without jitter.
func retryPolicy() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return b
}

func (c *Client) once(ctx context.Context, method, path string, body []byte) ([]Task, bool, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return nil, false, fmt.Errorf("taskapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("taskapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	debug.LogTiming(fmt.Sprintf("taskapi %s %s", method, path), time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("taskapi: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: errorMessage(raw)}
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, se
	}
	var out listResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, fmt.Errorf("taskapi: decode response: %w", err)
	}
	if out.Tasks == nil {
		out.Tasks = []Task{}
	}
	return out.Tasks, false, nil
}

// errorMessage pulls a message out of a JSON error body, or returns the
// trimmed body.
func errorMessage(raw []byte) string {
	var body struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		switch e := body.Error.(type) {
		case string:
			if e != "" {
				return e
			}
		case map[string]any:
			if m, ok := e["message"].(string); ok && m != "" {
				return m
			}
		}
		if body.Message != "" {
			return body.Message
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
