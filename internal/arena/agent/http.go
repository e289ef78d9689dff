package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/duskvale/werewolf-arena/internal/arena/domain"
	"github.com/duskvale/werewolf-arena/internal/platform/timeouts"
)

// decidePath is the decision endpoint every participant serves.
const decidePath = "/act"

// ErrMalformed marks replies the participant delivered but the referee could
// not use: invalid JSON or an unknown action kind.
var ErrMalformed = errors.New("malformed agent response")

// HTTPClient drives one remote participant over HTTP JSON.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the participant at baseURL. The overall
// request deadline comes from the caller's context; the client only bounds
// connection establishment.
func NewHTTPClient(baseURL string) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("agent url is required")
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: timeouts.AgentConnect}).DialContext,
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: transport},
	}, nil
}

// Decide posts the request to the participant and decodes its action. The
// request id is stamped here when the caller left it empty.
func (c *HTTPClient) Decide(ctx context.Context, req Request) (domain.Action, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if deadline, ok := ctx.Deadline(); ok {
		req.DeadlineSeconds = time.Until(deadline).Seconds()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return domain.Action{}, fmt.Errorf("encode agent request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+decidePath, bytes.NewReader(body))
	if err != nil {
		return domain.Action{}, fmt.Errorf("build agent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", req.RequestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.Action{}, fmt.Errorf("call agent %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		limited, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Action{}, fmt.Errorf("agent %s returned %d: %s", c.baseURL, resp.StatusCode, strings.TrimSpace(string(limited)))
	}

	var decision Decision
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		return domain.Action{}, fmt.Errorf("%w: decode from %s: %v", ErrMalformed, c.baseURL, err)
	}

	action, err := toAction(req.Actor, decision)
	if err != nil {
		return domain.Action{}, fmt.Errorf("%w: from %s: %v", ErrMalformed, c.baseURL, err)
	}
	return action, nil
}
