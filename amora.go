// Package amora provides the Go client for the Amora dating platform API.
//
// The platform exposes a plain HTTP/JSON API (Laravel-style, bearer-token
// authenticated) for chats, messages, partner search, profiles, and
// notifications. This package covers that surface plus the client-side chat
// synchronization layer the web and mobile clients are built on.
//
// Example:
//
//	client := amora.NewClient("", amora.WithBaseURL("https://amora.example"))
//	sess, _ := client.Auth().Login(ctx, "jess@example.com", "secret")
//	client.SetToken(sess.Token)
//
//	chats, _ := client.Chats().List(ctx)
//	msg, _ := client.Chats().Send(ctx, chats[0].ID, &amora.MessageDraft{Content: "hey!"})
//	_ = client.Messages().MarkRead(ctx, msg.ID)
package amora

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// Environment
// ============================================================================

type Environment string

const (
	Production Environment = "production"
	Staging    Environment = "staging"
)

var environments = map[Environment]string{
	Production: "https://amora.app",
	Staging:    "https://staging.amora.app",
}

const (
	DefaultBaseURL = "https://amora.app"
	DefaultTimeout = 30 * time.Second

	// apiPrefix is prepended to every API path; the session-cookie handshake
	// lives outside it.
	apiPrefix = "/api"
)

// ============================================================================
// Client
// ============================================================================

type Client struct {
	token      string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	log        *zap.Logger

	auth          *AuthClient
	chats         *ChatsClient
	messages      *MessagesClient
	partners      *PartnersClient
	profile       *ProfileClient
	notifications *NotificationsClient
	realtime      *RealtimeClient
}

type ClientOption func(*Client)

func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

func WithEnvironment(env Environment) ClientOption {
	return func(c *Client) {
		if u, ok := environments[env]; ok {
			c.baseURL = u
		}
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

func WithUserAgent(agent string) ClientOption {
	return func(c *Client) { c.userAgent = agent }
}

// WithLogger sets the logger used by the polling and reporting paths.
// The client is silent by default.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient creates a new Amora client.
// token is optional — pass "" before login and call SetToken afterwards.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.auth = &AuthClient{client: c}
	c.chats = &ChatsClient{client: c}
	c.messages = &MessagesClient{client: c}
	c.partners = &PartnersClient{client: c}
	c.profile = &ProfileClient{client: c}
	c.notifications = &NotificationsClient{client: c}
	c.realtime = newRealtimeClient(c)
	return c
}

// SetToken sets or replaces the bearer token. The token is the only credential
// state the client holds; it is attached to every request at build time rather
// than read from any shared storage.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token ("" when unauthenticated).
func (c *Client) Token() string {
	return c.token
}

// BaseURL returns the configured API origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Auth() *AuthClient                   { return c.auth }
func (c *Client) Chats() *ChatsClient                 { return c.chats }
func (c *Client) Messages() *MessagesClient           { return c.messages }
func (c *Client) Partners() *PartnersClient           { return c.partners }
func (c *Client) Profile() *ProfileClient             { return c.profile }
func (c *Client) Notifications() *NotificationsClient { return c.notifications }
func (c *Client) Realtime() *RealtimeClient           { return c.realtime }

// EstablishSession performs the cross-origin cookie handshake the backend
// requires before credentialed calls: it installs a cookie jar on the HTTP
// client (if none is present) and fetches the CSRF cookie so subsequent
// requests forward the session cookie.
func (c *Client) EstablishSession(ctx context.Context) error {
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return fmt.Errorf("create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sanctum/csrf-cookie", nil)
	if err != nil {
		return fmt.Errorf("create handshake request: %w", err)
	}
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("session handshake: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("session handshake: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// ============================================================================
// Internal request helpers
// ============================================================================

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// doRequest issues a JSON API request. path is relative to the /api prefix
// (e.g. "/chats"). A non-2xx response is decoded into an *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, query map[string]string) ([]byte, error) {
	u := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		params := url.Values{}
		for k, v := range query {
			params.Set(k, v)
		}
		u += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, apiErrorFrom(resp.StatusCode, data)
	}
	return data, nil
}

// formField is a plain text field of a multipart request.
type formField struct {
	name  string
	value string
}

// formFile is the single optional file part of a multipart request.
type formFile struct {
	field    string
	name     string
	mimeType string
	reader   io.Reader
}

// doMultipart issues a multipart/form-data POST, used by the message send and
// avatar upload paths.
func (c *Client) doMultipart(ctx context.Context, path string, fields []formField, file *formFile) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("failed to write form field %q: %w", f.name, err)
		}
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.name))
		if file.mimeType != "" {
			h.Set("Content-Type", file.mimeType)
		}
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, file.reader); err != nil {
			return nil, fmt.Errorf("failed to write file data: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, apiErrorFrom(resp.StatusCode, data)
	}
	return data, nil
}

func decodeJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}
