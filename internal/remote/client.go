// Package remote talks to the persistence service and sends finished
// sessions to it in the background.
package remote

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
	"strconv"
	"strings"
	"time"

	"github.com/pavelanni/neetmock/internal/auth"
	"github.com/pavelanni/neetmock/internal/model"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 15 * time.Second

var (
	// ErrUnauthorized is returned for a 401 response.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmailTaken is returned when registration hits an existing account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrNotLoggedIn is returned when an authenticated call has no token.
	ErrNotLoggedIn = errors.New("not logged in")
)

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int
	Message string
	Fields  []auth.FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrEmailTaken:
		return e.Status == http.StatusConflict
	}
	return false
}

// Credentials is what the client needs from a credential store.
type Credentials interface {
	Token() string
	Save(Credential) error
	Clear() error
}

// Client is an HTTP client for the persistence API.
type Client struct {
	base  *url.URL
	http  *http.Client
	creds Credentials
}

// NewClient creates a client for the API rooted at baseURL, for example
// http://localhost:8080/api.
func NewClient(baseURL string, creds Credentials) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server URL %q must be http or https", baseURL)
	}
	return &Client{
		base:  u,
		http:  &http.Client{Timeout: DefaultTimeout},
		creds: creds,
	}, nil
}

// LoggedIn reports whether a token is available.
func (c *Client) LoggedIn() bool {
	return c.creds.Token() != ""
}

// Register creates an account and stores the returned credential.
func (c *Client) Register(ctx context.Context, name, email, password string) (*model.AuthResponse, error) {
	if err := auth.ValidateRegistration(name, email, password); err != nil {
		return nil, err
	}
	body := map[string]string{"name": strings.TrimSpace(name), "email": email, "password": password}
	return c.authenticate(ctx, "/auth/register", body)
}

// Login exchanges email and password for a token and stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	if err := auth.ValidateLogin(email, password); err != nil {
		return nil, err
	}
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "/auth/login", body)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp, false); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("server returned an empty token")
	}
	err := c.creds.Save(Credential{Token: resp.Token, Name: resp.Name, Email: resp.Email, Role: resp.Role})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout forgets the stored credential.
func (c *Client) Logout() error {
	return c.creds.Clear()
}

// Profile returns the account behind the current token.
func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

// SubmitTest stores a finished session.
func (c *Client) SubmitTest(ctx context.Context, sub model.Submission) (*model.TestRecord, error) {
	var rec model.TestRecord
	if err := c.do(ctx, http.MethodPost, "/test/submit", sub, &rec, true); err != nil {
		return nil, err
	}
	return &rec, nil
}

// History lists stored sessions, newest first. Zero page or limit leaves
// the choice to the server.
func (c *Client) History(ctx context.Context, page, limit int) (*model.HistoryPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/test/history"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var hp model.HistoryPage
	if err := c.do(ctx, http.MethodGet, path, nil, &hp, true); err != nil {
		return nil, err
	}
	return &hp, nil
}

// do sends one request. For authenticated calls a 401 clears the stored
// credential before ErrUnauthorized is returned.
func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	var token string
	if authed {
		token = c.creds.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb struct {
			Message string            `json:"message"`
			Errors  []auth.FieldError `json:"errors"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&eb); err == nil {
			apiErr.Message = eb.Message
			apiErr.Fields = eb.Errors
		}
		if authed && resp.StatusCode == http.StatusUnauthorized {
			if err := c.creds.Clear(); err != nil {
				slog.Warn("failed to clear credentials", "error", err)
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
