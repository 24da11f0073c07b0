package rollup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/hashicorp/go-cleanhttp"
)

// Coordinator is the external service that hands out pending requests and
// records verdicts.
type Coordinator interface {
	// Finish reports status for the previous request and returns the next
	// pending request, or nil when there is none.
	Finish(ctx context.Context, status Status) (*Request, error)
}

// Client talks to the coordinator over HTTP.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient returns a coordinator client for baseURL. Each call is bounded by
// timeout; zero disables the bound.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		timeout:    timeout,
		httpClient: cleanhttp.DefaultPooledClient(),
	}
}

// Finish posts {"status": status} to /finish. A 202 Accepted response means
// no request is pending. Connection failures, timeouts and unreadable
// bodies are ErrTransport; a body that is not a JSON object is
// ErrMalformedRequest. Request-shape errors are returned together with the
// partially parsed request.
func (c *Client) Finish(ctx context.Context, status Status) (*Request, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(finishRequest{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to encode finish request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/finish", bytes.NewReader(body))
	if err != nil {
		return nil, errorsmod.Wrap(ErrTransport, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errorsmod.Wrap(ErrTransport, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorsmod.Wrapf(ErrTransport, "failed to read response body: %v", err)
	}
	return ParseRequest(respBody)
}
