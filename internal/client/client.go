// Package client talks to the task API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"yourday/internal/model"
)

// DefaultTimeout bounds every call unless the caller's context is shorter.
const DefaultTimeout = 10 * time.Second

// ErrUnauthorized is returned when the API rejects the token.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is any failure the client has no richer type for.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client is bound to one base URL and one bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for baseURL, e.g. "http://localhost:3001/api".
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// ListOptions mirrors the query parameters of GET /tasks. Zero values are omitted.
type ListOptions struct {
	StartDate time.Time
	EndDate   time.Time
	Category  model.Category
}

func (c *Client) ListTasks(ctx context.Context, opts ListOptions) ([]model.Task, error) {
	query := url.Values{}
	if !opts.StartDate.IsZero() {
		query.Set("startDate", opts.StartDate.UTC().Format(time.RFC3339Nano))
	}
	if !opts.EndDate.IsZero() {
		query.Set("endDate", opts.EndDate.UTC().Format(time.RFC3339Nano))
	}
	if opts.Category != "" {
		query.Set("category", string(opts.Category))
	}
	path := "/tasks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var out struct {
		Task *model.Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Task, nil
}

func (c *Client) CreateTask(ctx context.Context, draft model.TaskDraft) (*model.Task, error) {
	var out struct {
		Task *model.Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPost, "/tasks", draftBody(draft), &out); err != nil {
		return nil, err
	}
	return out.Task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	var out struct {
		Task *model.Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), patchBody(patch), &out); err != nil {
		return nil, err
	}
	return out.Task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type errorBody struct {
	Message         string `json:"message"`
	Field           string `json:"field"`
	ConflictingTask *struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		StartTime time.Time `json:"startTime"`
		EndTime   time.Time `json:"endTime"`
	} `json:"conflictingTask"`
}

// decodeError turns an error response back into the model error types.
func decodeError(resp *http.Response) error {
	var body errorBody
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body.Message)
	case resp.StatusCode == http.StatusNotFound:
		return model.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest && body.ConflictingTask != nil:
		return &model.ConflictError{
			BlockingTaskID: body.ConflictingTask.ID,
			BlockingTitle:  body.ConflictingTask.Title,
			BlockingStart:  body.ConflictingTask.StartTime,
			BlockingEnd:    body.ConflictingTask.EndTime,
		}
	case resp.StatusCode == http.StatusBadRequest && body.Field != "":
		reason := strings.TrimSpace(strings.TrimPrefix(strings.ToLower(body.Message), strings.ToLower(body.Field)))
		return &model.FieldError{Field: body.Field, Reason: reason}
	default:
		msg := body.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
}

func draftBody(d model.TaskDraft) map[string]any {
	body := map[string]any{
		"title":     d.Title,
		"startTime": d.StartTime,
		"endTime":   d.EndTime,
	}
	optional := map[string]string{
		"description": d.Description,
		"category":    d.Category,
		"notes":       d.Notes,
		"reminder":    d.Reminder,
	}
	for key, value := range optional {
		if value != "" {
			body[key] = value
		}
	}
	return body
}

// patchBody sends only the fields that are set. A set but empty reminder is sent
// as null, which clears it.
func patchBody(p model.TaskPatch) map[string]any {
	body := map[string]any{}
	fields := map[string]model.OptionalString{
		"title":       p.Title,
		"description": p.Description,
		"startTime":   p.StartTime,
		"endTime":     p.EndTime,
		"category":    p.Category,
		"notes":       p.Notes,
		"reminder":    p.Reminder,
	}
	for key, field := range fields {
		if !field.Set {
			continue
		}
		if key == "reminder" && field.Value == "" {
			body[key] = nil
			continue
		}
		body[key] = field.Value
	}
	return body
}
