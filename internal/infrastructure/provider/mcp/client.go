// Package mcp is a minimal client for tool servers speaking the Model Context
// Protocol over streamable HTTP. Each CallTool runs a short session:
// initialize, tools/list, tools/call, then a best-effort session delete.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/pkg/metrics"
)

const (
	protocolVersion = "2025-03-26"
	headerSession   = "Mcp-Session-Id"
	defaultTimeout  = 60 * time.Second
	maxEventSize    = 16 << 20
	clientName      = "ai-content-explorer"
	clientVersion   = "1.0.0"
)

// Client implements ports.ContentProvider against one MCP endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	log      zerolog.Logger
	nextID   atomic.Int64
}

type Option func(*Client)

// WithCredentials adds the api_key and profile query parameters the hosted
// tool servers expect. Empty values are left out.
func WithCredentials(apiKey, profile string) Option {
	return func(c *Client) {
		u, err := url.Parse(c.endpoint)
		if err != nil {
			return
		}
		q := u.Query()
		if apiKey != "" {
			q.Set("api_key", apiKey)
		}
		if profile != "" {
			q.Set("profile", profile)
		}
		u.RawQuery = q.Encode()
		c.endpoint = u.String()
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds a whole CallTool session.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{},
		timeout:  defaultTimeout,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CallTool calls the first of tools the server offers and returns the name it
// picked and the raw content array of the result. Every failure wraps
// domain.ErrProviderUnavailable.
func (c *Client) CallTool(ctx context.Context, tools []string, args map[string]any) (string, json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	tool, content, err := c.callTool(ctx, tools, args)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	label := tool
	if label == "" {
		label = "unknown"
	}
	metrics.ProviderRequestDuration.WithLabelValues(label, outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		c.log.Warn().Err(err).Str("tool", label).Dur("duration", time.Since(start)).Msg("provider call failed")
		return tool, nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	c.log.Debug().Str("tool", tool).Dur("duration", time.Since(start)).Msg("provider call completed")
	return tool, content, nil
}

func (c *Client) callTool(ctx context.Context, tools []string, args map[string]any) (string, json.RawMessage, error) {
	s := &session{client: c}

	if _, err := s.request(ctx, "initialize", map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": clientName, "version": clientVersion},
	}); err != nil {
		return "", nil, fmt.Errorf("initialize: %w", err)
	}
	defer s.close()

	if err := s.notify(ctx, "notifications/initialized"); err != nil {
		return "", nil, fmt.Errorf("initialized: %w", err)
	}

	raw, err := s.request(ctx, "tools/list", map[string]any{})
	if err != nil {
		return "", nil, fmt.Errorf("tools/list: %w", err)
	}
	var listed struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(raw, &listed); err != nil {
		return "", nil, fmt.Errorf("tools/list: decode: %w", err)
	}
	offered := make(map[string]bool, len(listed.Tools))
	for _, t := range listed.Tools {
		offered[t.Name] = true
	}

	tool := ""
	for _, name := range tools {
		if offered[name] {
			tool = name
			break
		}
	}
	if tool == "" {
		return "", nil, fmt.Errorf("none of %v offered by server", tools)
	}

	raw, err = s.request(ctx, "tools/call", map[string]any{"name": tool, "arguments": args})
	if err != nil {
		return tool, nil, fmt.Errorf("tools/call %s: %w", tool, err)
	}
	var result struct {
		Content json.RawMessage `json:"content"`
		IsError bool            `json:"isError"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return tool, nil, fmt.Errorf("tools/call %s: decode: %w", tool, err)
	}
	if result.IsError {
		return tool, nil, fmt.Errorf("tools/call %s: tool reported an error", tool)
	}
	if len(result.Content) == 0 || string(result.Content) == "null" {
		result.Content = json.RawMessage("[]")
	}
	return tool, result.Content, nil
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      *int64 `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type session struct {
	client *Client
	id     string
}

func (s *session) request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := s.client.nextID.Add(1)
	resp, err := s.post(ctx, rpcRequest{JSONRPC: "2.0", ID: &id, Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if sid := resp.Header.Get(headerSession); sid != "" {
		s.id = sid
	}

	msg, err := readResponse(resp, id)
	if err != nil {
		return nil, err
	}
	if msg.Error != nil {
		return nil, msg.Error
	}
	return msg.Result, nil
}

func (s *session) notify(ctx context.Context, method string) error {
	resp, err := s.post(ctx, rpcRequest{JSONRPC: "2.0", Method: method})
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (s *session) post(ctx context.Context, msg rpcRequest) (*http.Response, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if s.id != "" {
		req.Header.Set(headerSession, s.id)
		req.Header.Set("Mcp-Protocol-Version", protocolVersion)
	}

	resp, err := s.client.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}

// close ends the session on the server. Servers without session support
// answer 405, which is fine.
func (s *session) close() {
	if s.id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.client.endpoint, nil)
	if err != nil {
		return
	}
	req.Header.Set(headerSession, s.id)
	resp, err := s.client.http.Do(req)
	if err != nil {
		s.client.log.Debug().Err(err).Msg("mcp session delete failed")
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// readResponse returns the JSON-RPC response with the given id from either a
// plain JSON body or an event stream.
func readResponse(resp *http.Response, id int64) (*rpcResponse, error) {
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "text/event-stream" {
		var msg rpcResponse
		if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &msg, nil
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)

	var data strings.Builder
	flush := func() (*rpcResponse, bool) {
		defer data.Reset()
		if data.Len() == 0 {
			return nil, false
		}
		var msg rpcResponse
		if err := json.Unmarshal([]byte(data.String()), &msg); err != nil {
			return nil, false
		}
		var got int64
		if err := json.Unmarshal(msg.ID, &got); err != nil || got != id {
			return nil, false
		}
		return &msg, true
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if msg, ok := flush(); ok {
				return msg, nil
			}
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if msg, ok := flush(); ok {
		return msg, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event stream: %w", err)
	}
	return nil, errors.New("event stream ended without a response")
}
