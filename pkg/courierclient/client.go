package courierclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// NewTokenHeader carries a refreshed token issued by the server.
const NewTokenHeader = "X-New-Token"

// BaseURLSource supplies the API origin for each request.
type BaseURLSource interface {
	BaseURL(ctx context.Context) (string, error)
}

// Client talks to the courier API on behalf of one persisted session.
type Client struct {
	baseURL BaseURLSource
	http    *http.Client
	store   Store
	log     zerolog.Logger

	mu          sync.RWMutex
	session     Session
	initialized bool
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New loads the persisted session from store.
func New(baseURL BaseURLSource, store Store, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		store:   store,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	sess, err := store.Load()
	if err != nil {
		return nil, err
	}
	c.session = sess
	return c, nil
}

// Init settles the session on startup. A cached user is trusted as is; a
// bare token is checked against the server and dropped only when the server
// rejects it.
func (c *Client) Init(ctx context.Context) error {
	defer func() {
		c.mu.Lock()
		c.initialized = true
		c.mu.Unlock()
	}()

	c.mu.RLock()
	token, user := c.session.Token, c.session.User
	c.mu.RUnlock()

	if token == "" {
		return c.update(func(s *Session) { s.User = nil })
	}
	if user != nil {
		return nil
	}

	_, err := c.Validate(ctx)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.log.Info().Int("status", apiErr.Status).Msg("stored token rejected, clearing session")
		return c.update(func(s *Session) {
			s.Token = ""
			s.User = nil
		})
	}
	return err
}

// State reports the session as the route guard sees it.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{Initialized: c.initialized, Token: c.session.Token, User: c.session.User}
}

// Guard evaluates the current state against requiredRoles.
func (c *Client) Guard(requiredRoles ...string) Decision {
	return Guard(c.State(), requiredRoles...)
}

func (c *Client) User() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.User
}

type authResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (c *Client) Register(ctx context.Context, username, email, phone, password string) (*User, error) {
	in := map[string]string{"username": username, "email": email, "phone": phone, "password": password}
	return c.authenticate(ctx, "/api/auth/register", in)
}

// Login accepts an email address or username as identifier.
func (c *Client) Login(ctx context.Context, identifier, password string) (*User, error) {
	in := map[string]string{"identifier": identifier, "password": password}
	return c.authenticate(ctx, "/api/auth/login", in)
}

func (c *Client) authenticate(ctx context.Context, path string, in any) (*User, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	if err := c.update(func(s *Session) {
		s.Token = out.Token
		s.User = out.User
	}); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Validate confirms the session with the server. temporary is true when the
// server could not resolve the user but granted continued access, in which
// case the cached session is kept unchanged.
func (c *Client) Validate(ctx context.Context) (temporary bool, err error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/auth/validate", nil, &raw); err != nil {
		return false, err
	}

	var probe struct {
		TemporaryAccess bool `json:"temporaryAccess"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false, fmt.Errorf("decode validate response: %w", err)
	}
	if probe.TemporaryAccess {
		return true, nil
	}

	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return false, fmt.Errorf("decode validate response: %w", err)
	}
	return false, c.update(func(s *Session) { s.User = &u })
}

// Logout forgets the identity but keeps the remembered route.
func (c *Client) Logout() error {
	return c.update(func(s *Session) {
		s.Token = ""
		s.User = nil
	})
}

func (c *Client) RememberRoute(route string) error {
	return c.update(func(s *Session) { s.LastRoute = route })
}

func (c *Client) LastRoute() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session.LastRoute == "" {
		return DefaultRoute
	}
	return c.session.LastRoute
}

func (c *Client) BookCourier(ctx context.Context, req BookingRequest) (*Order, error) {
	var out Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Order(ctx context.Context, id string) (*Order, error) {
	var out Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrdersFor lists orders whose email or phone matches identifier.
func (c *Client) OrdersFor(ctx context.Context, identifier string) ([]Order, error) {
	var out []Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/user/"+url.PathEscape(identifier), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Orders lists every order. Admin only.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) update(fn func(*Session)) error {
	c.mu.Lock()
	fn(&c.session)
	snapshot := c.session
	c.mu.Unlock()
	return c.store.Save(snapshot)
}

type messageEnvelope struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	base, err := c.baseURL.BaseURL(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if token := c.session.Token; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		if inv, ok := c.baseURL.(interface{ Invalidate() }); ok && ctx.Err() == nil {
			inv.Invalidate()
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if fresh := resp.Header.Get(NewTokenHeader); fresh != "" {
		if err := c.update(func(s *Session) { s.Token = fresh }); err != nil {
			c.log.Warn().Err(err).Msg("persist refreshed token")
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env messageEnvelope
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &env) == nil && env.Message != "" {
			msg = env.Message
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
