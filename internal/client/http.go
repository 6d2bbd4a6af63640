package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/alfredjeanlab/trellis/internal/auth"
	"github.com/alfredjeanlab/trellis/internal/model"
	"github.com/alfredjeanlab/trellis/internal/presence"
)

// HTTPClient implements SettingsClient using the trellis HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	sessions   SessionSource
	httpClient *http.Client

	csrfOnce  sync.Once
	csrfToken string
	csrfErr   error
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080").
func NewHTTPClient(baseURL string, sessions SessionSource) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessions:   sessions,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// Load fetches the document. The server answers with the default document
// when the user has never saved.
func (c *HTTPClient) Load(ctx context.Context) (model.Config, error) {
	body, err := c.do(ctx, "load", http.MethodGet, "/load", nil)
	if err != nil {
		return model.Config{}, err
	}
	cfg, err := model.Parse(body)
	if err != nil {
		return model.Config{}, &NetworkError{Op: "load", StatusCode: http.StatusOK, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return cfg, nil
}

// Save replaces the stored document with cfg.
func (c *HTTPClient) Save(ctx context.Context, cfg model.Config) error {
	data, err := model.Serialize(cfg)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}
	_, err = c.do(ctx, "save", http.MethodPost, "/save", data)
	return err
}

// Devices lists the signed-in user's recently active sessions, most recent
// first.
func (c *HTTPClient) Devices(ctx context.Context) ([]presence.Entry, error) {
	body, err := c.do(ctx, "devices", http.MethodGet, "/devices", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Devices []presence.Entry `json:"devices"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &NetworkError{Op: "devices", StatusCode: http.StatusOK, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return out.Devices, nil
}

// Health returns the server's health status string.
func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Op: "health", Err: err}
	}
	defer resp.Body.Close()
	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &NetworkError{Op: "health", StatusCode: resp.StatusCode, Err: err}
	}
	return out.Status, nil
}

func (c *HTTPClient) csrf() (string, error) {
	c.csrfOnce.Do(func() {
		c.csrfToken, c.csrfErr = auth.NewCSRFToken()
	})
	return c.csrfToken, c.csrfErr
}

// do performs an authenticated request and returns the response body of a
// 2xx answer.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	sess, err := currentSession(ctx, c.sessions)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	req.Header.Set("User-Agent", UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		tok, err := c.csrf()
		if err != nil {
			return nil, fmt.Errorf("creating csrf token: %w", err)
		}
		auth.SetCSRF(req, tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrNotAuthenticated
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
		return nil, &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: apiErr}
	}
	return respBody, nil
}
