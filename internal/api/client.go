package api

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

	"github.com/five82/kavita/internal/narration"
	"github.com/five82/kavita/internal/results"
)

// Client talks to the kavita server.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	maxAudio  int64
}

// ErrAudioTooLarge is wrapped in a RequestError when a narration clip
// exceeds the client's size limit.
var ErrAudioTooLarge = errors.New("narration audio exceeds size limit")

// Ensure Client can back the narration controller.
var _ narration.Synthesizer = (*Client)(nil)

const (
	defaultServer     = "127.0.0.1:8787"
	defaultUserAgent  = "kavita/0.1"
	requestTimeout    = 5 * time.Second
	synthesizeTimeout = 30 * time.Second
	maxAudioBytes     = 16 << 20
)

// NewClient builds a Client for the server at host:port or URL.
func NewClient(server string) (*Client, error) {
	base, err := parseBaseURL(server)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		maxAudio:  maxAudioBytes,
	}, nil
}

// BaseURL returns the normalised server URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchContent retrieves the raw content override document.
func (c *Client) FetchContent(ctx context.Context) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/content", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Synthesize requests narration audio for text.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, synthesizeTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.send(ctx, http.MethodPost, &url.URL{Path: "/api/tts"}, body, "audio/mpeg")
	if err != nil {
		return nil, &narration.RequestError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &narration.RequestError{Status: resp.StatusCode}
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, c.maxAudio+1))
	if err != nil {
		return nil, &narration.RequestError{Err: fmt.Errorf("read audio: %w", err)}
	}
	if int64(len(audio)) > c.maxAudio {
		return nil, &narration.RequestError{Err: fmt.Errorf("%w: more than %d bytes", ErrAudioTooLarge, c.maxAudio)}
	}
	return audio, nil
}

// SaveResult submits a finished quiz attempt.
func (c *Client) SaveResult(ctx context.Context, rec results.Record) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	var ack struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/save-result", body, &ack); err != nil {
		return err
	}
	if !ack.OK {
		return fmt.Errorf("save result rejected: %s", ack.Message)
	}
	return nil
}

// FetchResults retrieves every stored attempt.
func (c *Client) FetchResults(ctx context.Context) ([]results.Record, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []results.Record
	if err := c.doJSON(ctx, http.MethodGet, "/api/results", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	rel := &url.URL{Path: path}
	resp, err := c.send(ctx, method, rel, body, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method string, rel *url.URL, body []byte, accept string) (*http.Response, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func parseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		trimmed = defaultServer
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server %q: %w", server, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
