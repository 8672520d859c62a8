// Package client provides an HTTP client for the village portal comment API.
package client

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

	"github.com/villagegov/portal/internal/auth"
	"github.com/villagegov/portal/internal/comment"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 15 * time.Second

// Client is an HTTP client for the comment API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new API client. An empty apiKey makes anonymous requests.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FieldError is one server-reported validation failure.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return JoinFieldErrors(e.Fields)
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server error: %s", http.StatusText(e.StatusCode))
}

// Structured reports whether the server sent a decodable error body.
func (e *APIError) Structured() bool {
	return e.Message != "" || len(e.Fields) > 0
}

// JoinFieldErrors renders field errors as "path: message; path: message".
func JoinFieldErrors(fields []FieldError) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Path == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Path+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

type listResponse struct {
	Comments []*comment.Comment `json:"comments"`
}

// CreateComment posts a new comment on ref. The server must answer 201.
func (c *Client) CreateComment(ctx context.Context, ref comment.TargetRef, content string) (*comment.Comment, error) {
	body := struct {
		TargetType comment.TargetType `json:"target_type"`
		Content    string             `json:"content"`
	}{ref.Type, content}

	var created comment.Comment
	path := "/comments/create/" + url.PathEscape(ref.ID)
	if err := c.send(ctx, http.MethodPost, path, body, &created, http.StatusCreated); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListComments returns the comments attached to ref. Reads need no auth.
func (c *Client) ListComments(ctx context.Context, ref comment.TargetRef) ([]*comment.Comment, error) {
	path := "/comments/" + url.PathEscape(ref.ID)
	if ref.Type != "" {
		path += "?target_type=" + url.QueryEscape(string(ref.Type))
	}

	var resp listResponse
	if err := c.send(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Comments == nil {
		resp.Comments = make([]*comment.Comment, 0)
	}
	return resp.Comments, nil
}

// UpdateComment replaces the content of comment id.
func (c *Client) UpdateComment(ctx context.Context, id int64, content string) (*comment.Comment, error) {
	body := map[string]string{"content": content}
	var updated comment.Comment
	if err := c.send(ctx, http.MethodPatch, fmt.Sprintf("/comments/%d", id), body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteComment removes comment id.
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/comments/%d", id), nil, nil)
}

// Me returns the principal owning the client's API key.
func (c *Client) Me(ctx context.Context) (*auth.Principal, error) {
	var p auth.Principal
	if err := c.send(ctx, http.MethodGet, "/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// send encodes body, performs the request and decodes the response into result.
// With no expected statuses any 2xx is accepted.
func (c *Client) send(ctx context.Context, method, path string, body, result interface{}, expect ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, result, expect)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}, expect []int) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if !statusOK(resp.StatusCode, expect) {
		return decodeError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

func statusOK(code int, expect []int) bool {
	if len(expect) == 0 {
		return code >= 200 && code < 300
	}
	for _, e := range expect {
		if code == e {
			return true
		}
	}
	return false
}

// decodeError builds an APIError from {error} or {errors:[{path,message}]}.
func decodeError(code int, body []byte) error {
	apiErr := &APIError{StatusCode: code}

	var errResp struct {
		Error  string       `json:"error"`
		Errors []FieldError `json:"errors"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		apiErr.Message = errResp.Error
		apiErr.Fields = errResp.Errors
	}
	return apiErr
}
