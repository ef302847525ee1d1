// Package vndb is a small client for the VNDB Kana HTTP API.
package vndb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultEndpoint is the public Kana API base URL.
const DefaultEndpoint = "https://api.vndb.org/kana"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// Query is a Kana API query body.
type Query struct {
	Filters any    `json:"filters,omitempty"`
	Fields  string `json:"fields,omitempty"`
	Sort    string `json:"sort,omitempty"`
	Results int    `json:"results,omitempty"`
}

// Response is a Kana API response for the vn endpoint.
type Response struct {
	Results []VN `json:"results"`
	More    bool `json:"more"`
}

// VN is a visual novel record. Every field except id may be absent from a
// response, so optional scalars are pointers.
type VN struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Released    *string  `json:"released"`
	Image       *Image   `json:"image"`
	Aliases     []string `json:"aliases"`
	Length      *int     `json:"length"`
	Description *string  `json:"description"`
	Rating      *float64 `json:"rating"`
	Languages   []string `json:"languages"`
	Platforms   []string `json:"platforms"`
	Tags        []Tag    `json:"tags"`
}

// Image is the cover image of a VN.
type Image struct {
	URL *string `json:"url"`
}

// Tag is a VN tag.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// APIError is returned when Kana answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vndb: status %d: %s", e.StatusCode, e.Message)
}

// Config configures a Client.
type Config struct {
	Endpoint string
	// Token is an optional Kana API token.
	Token     string
	Timeout   time.Duration
	UserAgent string
}

// Client opens sessions against the Kana API.
type Client struct {
	cfg       Config
	transport *http.Transport
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "vndb-mcp"
	}
	return &Client{
		cfg:       cfg,
		transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
}

// Session is a connection-scoped handle. Close releases its connections.
type Session struct {
	cfg    Config
	client *http.Client
	tr     *http.Transport
	closed bool
}

// Open starts a session with its own connection pool.
func (c *Client) Open(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tr := c.transport.Clone()
	return &Session{
		cfg:    c.cfg,
		client: &http.Client{Transport: tr, Timeout: c.cfg.Timeout},
		tr:     tr,
	}, nil
}

// VN runs q against the vn endpoint.
func (s *Session) VN(ctx context.Context, q Query) (*Response, error) {
	if s.closed {
		return nil, errors.New("vndb: session closed")
	}
	body, err := json.Marshal(q)
	if err != nil {
		return nil, errors.Wrap(err, "encode query")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint+"/vn", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Token "+s.cfg.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// Transport errors keep their type so callers can classify them.
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return &out, nil
}

// Close releases idle connections held by the session.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.tr.CloseIdleConnections()
	return nil
}
