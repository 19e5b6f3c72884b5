package main

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
)

// apiClient talks to the hookwatch HTTP API
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, httpClient *http.Client) *apiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

type replayOutcome struct {
	ReplayedAt time.Time `json:"replayedAt"`
	TargetURL  string    `json:"targetUrl"`
	StatusCode int       `json:"statusCode"`
	OK         bool      `json:"ok"`
	DurationMs int64     `json:"durationMs"`
	Body       string    `json:"body,omitempty"`
}

type webhookEvent struct {
	ID            string            `json:"id"`
	Source        string            `json:"source"`
	CreatedAt     time.Time         `json:"createdAt"`
	Method        string            `json:"method"`
	Path          string            `json:"path"`
	Query         map[string]string `json:"query"`
	Headers       map[string]string `json:"headers"`
	Body          *string           `json:"body"`
	EventType     string            `json:"eventType,omitempty"`
	ReplayHistory []replayOutcome   `json:"replayHistory"`
}

type replayRequest struct {
	TargetURL              string            `json:"targetUrl,omitempty"`
	Target                 string            `json:"target,omitempty"`
	IncludeOriginalHeaders bool              `json:"includeOriginalHeaders"`
	AdditionalHeaders      map[string]string `json:"additionalHeaders,omitempty"`
}

type replayTarget struct {
	Name                   string   `json:"name"`
	URL                    string   `json:"url"`
	IncludeOriginalHeaders bool     `json:"includeOriginalHeaders"`
	HeaderNames            []string `json:"headerNames"`
	Signed                 bool     `json:"signed"`
}

// apiError is a non-2xx answer from the server
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

func (c *apiClient) ListEvents(ctx context.Context, source, search string) ([]webhookEvent, error) {
	q := url.Values{}
	if source != "" {
		q.Set("source", source)
	}
	if search != "" {
		q.Set("search", search)
	}
	var out struct {
		Items []webhookEvent `json:"items"`
	}
	path := "/api/events"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return out.Items, nil
}

func (c *apiClient) GetEvent(ctx context.Context, id string) (webhookEvent, error) {
	var out struct {
		Item webhookEvent `json:"item"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/events/"+url.PathEscape(id), nil, &out); err != nil {
		return webhookEvent{}, fmt.Errorf("getting event %s: %w", id, err)
	}
	return out.Item, nil
}

func (c *apiClient) Replay(ctx context.Context, id string, req replayRequest) (replayOutcome, error) {
	var out struct {
		Replay replayOutcome `json:"replay"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/events/"+url.PathEscape(id)+"/replay", req, &out); err != nil {
		return replayOutcome{}, fmt.Errorf("replaying event %s: %w", id, err)
	}
	return out.Replay, nil
}

func (c *apiClient) Clear(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/api/events", nil, nil); err != nil {
		return fmt.Errorf("clearing events: %w", err)
	}
	return nil
}

func (c *apiClient) Targets(ctx context.Context) ([]replayTarget, error) {
	var out struct {
		Items []replayTarget `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/targets", nil, &out); err != nil {
		return nil, fmt.Errorf("listing targets: %w", err)
	}
	return out.Items, nil
}

func (c *apiClient) Stats(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &out); err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	return out, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// isNotFound reports whether err is a 404 from the server
func isNotFound(err error) bool {
	var aerr *apiError
	return errors.As(err, &aerr) && aerr.Status == http.StatusNotFound
}
