package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

// RemoteClient talks to a GoTrue compatible identity service.
type RemoteClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewRemoteClient(baseURL, apiKey string, timeout time.Duration) *RemoteClient {
	return &RemoteClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *RemoteClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *RemoteClient) do(req *http.Request, out any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 || out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode identity response: %w", err)
	}
	return resp.StatusCode, nil
}

// Verify asks the identity service who owns token. Every failure is an
// auth error so callers always answer 401.
func (c *RemoteClient) Verify(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", nil)
	if err != nil {
		return nil, apperr.Auth("verify token", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var u User
	status, err := c.do(req, &u)
	if err != nil {
		return nil, apperr.Auth("verify token", err)
	}
	if status != http.StatusOK || u.ID == "" {
		return nil, ErrInvalidToken
	}
	return &u, nil
}

func (c *RemoteClient) Login(ctx context.Context, email, password string) (*Session, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, apperr.Upstream("build login request", err)
	}

	var s Session
	status, err := c.do(req, &s)
	if err != nil {
		return nil, apperr.Upstream("login", err)
	}
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, ErrInvalidCredentials
	case status != http.StatusOK:
		return nil, apperr.Upstream("login", fmt.Errorf("identity service returned %d", status))
	}
	return &s, nil
}

func (c *RemoteClient) Logout(ctx context.Context, token string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/logout", nil)
	if err != nil {
		return apperr.Upstream("build logout request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	status, err := c.do(req, nil)
	if err != nil {
		return apperr.Upstream("logout", err)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrInvalidToken
	case status >= 300:
		return apperr.Upstream("logout", fmt.Errorf("identity service returned %d", status))
	}
	return nil
}
