// Package client is a typed HTTP client for the zaloga API. It owns the
// bearer token and unwraps the response envelope.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erazemk/zaloga/internal/model"
)

// Storage keys for persisted auth state.
const (
	TokenKey = "zaloga_token"
	UserKey  = "zaloga_user"
)

// LoginRoute is where the user is sent after the API rejects the token.
const LoginRoute = "/auth"

// DefaultTimeout bounds a single request when no *http.Client is supplied.
const DefaultTimeout = 30 * time.Second

const maxResponseBytes = 10 << 20

// Storage is durable key/value storage for the token and cached user.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Navigator moves the user to another screen.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Client calls the zaloga API.
type Client struct {
	baseURL string
	http    *http.Client
	storage Storage
	nav     Navigator
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithNavigator sets the navigator used on 401 responses.
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.nav = n }
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for the API rooted at baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, storage Storage, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		storage: storage,
		nav:     NavigatorFunc(func(string) {}),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Token returns the stored bearer token, or "".
func (c *Client) Token() string {
	token, _ := c.storage.Get(TokenKey)
	return token
}

// SetToken stores the bearer token.
func (c *Client) SetToken(token string) {
	if err := c.storage.Set(TokenKey, token); err != nil {
		c.log.Warn("failed to persist token", "error", err)
	}
}

// CachedUser returns the user stored with the token, or nil.
func (c *Client) CachedUser() *model.User {
	raw, ok := c.storage.Get(UserKey)
	if !ok || raw == "" {
		return nil
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		c.log.Warn("ignoring malformed cached user", "error", err)
		return nil
	}
	return &u
}

// SetCachedUser stores u next to the token.
func (c *Client) SetCachedUser(u *model.User) {
	data, err := json.Marshal(u)
	if err != nil {
		c.log.Warn("failed to encode cached user", "error", err)
		return
	}
	if err := c.storage.Set(UserKey, string(data)); err != nil {
		c.log.Warn("failed to persist cached user", "error", err)
	}
}

// ClearAuth removes the token and cached user.
func (c *Client) ClearAuth() {
	for _, key := range []string{TokenKey, UserKey} {
		if err := c.storage.Delete(key); err != nil {
			c.log.Warn("failed to clear auth state", "key", key, "error", err)
		}
	}
}

// request describes one API call.
type request struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any
}

// do sends req and decodes the envelope data into out, which may be nil.
// Every failure is logged once here with the endpoint name.
func (c *Client) do(ctx context.Context, req request, out any) error {
	err := c.send(ctx, req, out)
	if err != nil {
		c.log.Error("api request failed", "endpoint", req.endpoint, "error", err)
	}
	return err
}

func (c *Client) send(ctx context.Context, req request, out any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", req.endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", req.endpoint, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", req.endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", req.endpoint, err)
	}

	var env model.Envelope
	envErr := json.Unmarshal(raw, &env)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.ClearAuth()
		c.nav.Navigate(LoginRoute)
		return c.apiError(ErrUnauthorized, req, resp.StatusCode, orDefault(env.Message, MsgUnauthorized), nil)
	case resp.StatusCode == http.StatusForbidden:
		return c.apiError(ErrForbidden, req, resp.StatusCode, MsgForbidden, nil)
	case resp.StatusCode >= 500:
		return c.apiError(ErrServer, req, resp.StatusCode, MsgServer, nil)
	}

	if envErr != nil {
		return c.apiError(ErrRequestFailed, req, resp.StatusCode, MsgRequestFailed, nil)
	}
	if !env.Success || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(ErrRequestFailed, req, resp.StatusCode, orDefault(env.Message, MsgRequestFailed), env.Errors)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: decoding data: %w", req.endpoint, err)
	}
	return nil
}

func (c *Client) apiError(kind error, req request, status int, msg string, fields model.FieldErrors) *APIError {
	return &APIError{Kind: kind, Endpoint: req.endpoint, Status: status, Message: msg, Errors: fields}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// isShapeError reports whether err is a JSON type mismatch, e.g. an object
// where an array was expected.
func isShapeError(err error) bool {
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}
