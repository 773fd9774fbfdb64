package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/engine-dashboard/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	RequestIDHeader = "X-Request-ID"

	defaultTimeout          = 15 * time.Second
	defaultBatchConcurrency = 4
)

// UnauthorizedHandler is called when a domain endpoint rejects the credential that
// was sent with the request.
type UnauthorizedHandler func(ctx context.Context, token string)

// Client talks to the engine-maintenance REST API.
//
// The bearer token is a default header shared by every request the client makes.
// SetBearerToken and ClearBearerToken take effect for any request started after they
// return.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	logger           zerolog.Logger
	batchConcurrency int

	mu             sync.RWMutex
	token          *oauth2.Token
	onUnauthorized UnauthorizedHandler
}

// Option configures a Client
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithBatchConcurrency bounds the number of parallel submissions in AddCycles
func WithBatchConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchConcurrency = n
		}
	}
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:5000/api
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		httpClient:       &http.Client{Timeout: defaultTimeout},
		logger:           log.Logger,
		batchConcurrency: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "apiclient").Logger()
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetBearerToken makes token the default credential for all subsequent requests
func (c *Client) SetBearerToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == "" {
		c.token = nil
		return
	}
	c.token = &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
}

// ClearBearerToken removes the default credential
func (c *Client) ClearBearerToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = nil
}

// AuthorizationHeader returns the Authorization value the next request will carry,
// or "" when anonymous.
func (c *Client) AuthorizationHeader() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return ""
	}
	return c.token.Type() + " " + c.token.AccessToken
}

func (c *Client) SetUnauthorizedHandler(h UnauthorizedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = h
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any

	// auth endpoints answer 401 for bad credentials, not for an expired session
	authEndpoint bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return err
	}

	c.mu.RLock()
	token := c.token
	onUnauthorized := c.onUnauthorized
	c.mu.RUnlock()

	sentToken := ""
	if token != nil {
		token.SetAuthHeader(req)
		sentToken = token.AccessToken
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).
			Str("method", r.method).
			Str("path", r.path).
			Str("request_id", requestID).
			Dur("latency", time.Since(start)).
			Msg("api request failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrapf(ctxErr, "%s %s", r.method, r.path)
		}
		return fmt.Errorf("%w: %s %s: %w", errors.ErrNetwork, r.method, r.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading %s %s: %w", errors.ErrNetwork, r.method, r.path, err)
	}

	c.logger.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("latency", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := newHTTPError(resp, body)
		if resp.StatusCode == http.StatusUnauthorized && !r.authEndpoint && sentToken != "" && onUnauthorized != nil {
			onUnauthorized(ctx, sentToken)
		}
		return httpErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decoding %s %s", r.method, r.path)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s %s", r.method, r.path)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s %s", r.method, r.path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
