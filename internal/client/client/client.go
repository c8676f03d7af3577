// Package client talks to the authentication server's HTTP API and keeps
// the resulting token pair in a SessionStore.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/authservice/internal/common"
)

const userAgent = "authctl/1"

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type errorBody struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

type Client struct {
	baseURL string
	http    *http.Client
	store   SessionStore
}

func New(baseURL string, timeout time.Duration, store SessionStore) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		store:   store,
	}
}

func (c *Client) SignUp(ctx context.Context, name, email string, password []byte) error {
	body := map[string]string{"name": name, "email": email, "password": string(password)}
	return c.startSession(ctx, "/auth/signup", body)
}

func (c *Client) SignIn(ctx context.Context, email string, password []byte) error {
	body := map[string]string{"email": email, "password": string(password)}
	return c.startSession(ctx, "/auth/signin", body)
}

func (c *Client) startSession(ctx context.Context, path string, body any) error {
	var t tokens
	if _, err := c.do(ctx, http.MethodPost, path, body, nil, &t); err != nil {
		return err
	}
	return c.store.Save(Session{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken})
}

// Refresh exchanges the stored refresh token for a new access token. A
// rotated refresh token replaces the stored one.
func (c *Client) Refresh(ctx context.Context) error {
	s, err := c.session()
	if err != nil {
		return err
	}
	if s.RefreshToken == "" {
		return ErrNotSignedIn
	}

	var t tokens
	if _, err := c.do(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": s.RefreshToken}, nil, &t); err != nil {
		return err
	}
	s.AccessToken = t.AccessToken
	if t.RefreshToken != "" {
		s.RefreshToken = t.RefreshToken
	}
	return c.store.Save(s)
}

// Logout ends the session on the server and always clears the local
// session, even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	s, err := c.session()
	if err != nil {
		return err
	}
	if s.Empty() {
		return ErrNotSignedIn
	}

	_, callErr := c.do(ctx, http.MethodDelete, "/auth/logout", nil, &s, nil)
	if err := c.store.Clear(); err != nil {
		return err
	}
	return callErr
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	if s.Empty() {
		return nil, ErrNotSignedIn
	}

	var u User
	resp, err := c.do(ctx, http.MethodGet, "/users/me", nil, &s, &u)
	if err != nil {
		return nil, err
	}
	if err := c.keepReissued(resp, s); err != nil {
		return nil, err
	}
	return &u, nil
}

// keepReissued stores an access token the server minted from our refresh
// token.
func (c *Client) keepReissued(resp *http.Response, s Session) error {
	if t := resp.Header.Get(common.ReissuedAccessTokenHeader); t != "" && t != s.AccessToken {
		s.AccessToken = t
		return c.store.Save(s)
	}
	return nil
}

func (c *Client) session() (Session, error) {
	s, err := c.store.Load()
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

// do sends a JSON request and decodes the "data" field of a 2xx response
// into out. Tokens from s are sent as headers when s is not nil.
func (c *Client) do(ctx context.Context, method, path string, body any, s *Session, out any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s != nil {
		if s.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+s.AccessToken)
		}
		if s.RefreshToken != "" {
			req.Header.Set(common.RefreshTokenHTTPHeader, s.RefreshToken)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if eb.Message == "" {
			eb.Message = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: eb.Message, Errors: eb.Errors}
	}

	if out != nil {
		env := struct {
			Data any `json:"data"`
		}{Data: out}
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}
