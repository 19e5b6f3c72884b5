package replay

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marcelsud/hookwatch/event"
	"github.com/marcelsud/hookwatch/targets"
)

// DefaultTimeout bounds a single dispatch when no timeout is configured
const DefaultTimeout = 30 * time.Second

// Transport sends one HTTP request; *http.Client satisfies it
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Signer produces extra headers that authenticate the outbound body
type Signer interface {
	Sign(body []byte) (map[string]string, error)
}

// Request is a replay instruction
type Request struct {
	TargetURL              string
	Target                 string // name of a configured target, resolved by Service
	IncludeOriginalHeaders bool
	AdditionalHeaders      map[string]string
	Signer                 Signer
}

// Result is the normalized outcome of one dispatch, including the response body
type Result struct {
	ReplayedAt time.Time
	TargetURL  string
	StatusCode int
	OK         bool
	DurationMs int64
	Body       string
}

// Outcome drops the response body, keeping what goes into replay history
func (r Result) Outcome() event.ReplayOutcome {
	return event.ReplayOutcome{
		ReplayedAt: r.ReplayedAt,
		TargetURL:  r.TargetURL,
		StatusCode: r.StatusCode,
		OK:         r.OK,
		DurationMs: r.DurationMs,
	}
}

// hopHeaders are recomputed by the outbound transport and never forwarded
var hopHeaders = map[string]bool{
	"host":           true,
	"content-length": true,
}

/* BuildHeaders assembles the outbound header set
 * Original headers (minus host and content-length) first, if asked for,
 * then additional headers with lower-cased names, which win on collision
 */
func BuildHeaders(ev event.Event, includeOriginal bool, additional map[string]string) map[string]string {
	headers := make(map[string]string, len(ev.Headers)+len(additional))
	if includeOriginal {
		for k, v := range ev.Headers {
			if hopHeaders[k] {
				continue
			}
			headers[k] = v
		}
	}
	for k, v := range additional {
		headers[strings.ToLower(k)] = v
	}
	return headers
}

// OutboundBody returns the body to forward: none for GET, HEAD or a bodiless event
func OutboundBody(ev event.Event) *string {
	if ev.Method == http.MethodGet || ev.Method == http.MethodHead || ev.Body == nil {
		return nil
	}
	body := *ev.Body
	return &body
}

/* Engine turns a captured event into exactly one outbound request
 * It never touches the store; callers record the outcome
 */
type Engine struct {
	transport Transport
	timeout   time.Duration
}

// NewEngine creates an engine; a nil transport uses a default *http.Client
func NewEngine(transport Transport, timeout time.Duration) *Engine {
	if transport == nil {
		transport = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		transport: transport,
		timeout:   timeout,
	}
}

// Timeout returns the upper bound of a single dispatch
func (e *Engine) Timeout() time.Duration {
	return e.timeout
}

// Replay dispatches ev to req.TargetURL and returns the normalized result
func (e *Engine) Replay(ctx context.Context, ev event.Event, req Request) (Result, error) {
	if req.TargetURL == "" {
		return Result{}, &ValidationError{Field: "targetUrl", Reason: "is required"}
	}
	if err := targets.ValidateURL(req.TargetURL); err != nil {
		return Result{}, &ValidationError{Field: "targetUrl", Reason: err.Error()}
	}

	headers := BuildHeaders(ev, req.IncludeOriginalHeaders, req.AdditionalHeaders)
	body := OutboundBody(ev)

	if req.Signer != nil {
		var signed []byte
		if body != nil {
			signed = []byte(*body)
		}
		sigHeaders, err := req.Signer.Sign(signed)
		if err != nil {
			return Result{}, fmt.Errorf("signing replay: %w", err)
		}
		for k, v := range sigHeaders {
			headers[strings.ToLower(k)] = v
		}
	}

	return e.send(ctx, ev.Method, req.TargetURL, headers, body)
}

func (e *Engine) send(ctx context.Context, method, targetURL string, headers map[string]string, body *string) (Result, error) {
	// Once dispatched a replay is only ended by the timeout, never by the caller going away
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(*body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, targetURL, reader)
	if err != nil {
		return Result{}, &TransportError{URL: targetURL, Err: fmt.Errorf("creating request: %w", err)}
	}
	for k, v := range headers {
		if k == "host" {
			httpReq.Host = v
			continue
		}
		httpReq.Header.Set(k, v)
	}

	started := time.Now()
	resp, err := e.transport.Do(httpReq)
	if err != nil {
		return Result{}, &TransportError{URL: targetURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := readBody(resp)
	if err != nil {
		return Result{}, &TransportError{URL: targetURL, Err: fmt.Errorf("reading response body: %w", err)}
	}

	return Result{
		ReplayedAt: time.Now().UTC(),
		TargetURL:  targetURL,
		StatusCode: resp.StatusCode,
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		DurationMs: time.Since(started).Milliseconds(),
		Body:       string(respBody),
	}, nil
}

// readBody returns the decoded response body. A forwarded accept-encoding
// header turns off the transport's transparent gzip handling.
func readBody(resp *http.Response) ([]byte, error) {
	if resp.Uncompressed || !strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		return io.ReadAll(resp.Body)
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
