// Package session holds a client-side token pair and transparently
// refreshes it once when the server answers 401. It is the consumer-side
// counterpart of the auth endpoints.
package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrNotAuthenticated is returned when no token pair is held or the
// refresh exchange itself is rejected.
var ErrNotAuthenticated = errors.New("not authenticated")

// Session stores the current access/refresh token pair
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string

	baseURL    string
	httpClient *http.Client
}

// New creates a session bound to the API base URL
func New(baseURL string) *Session {
	return &Session{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Get returns the currently held access token
func (s *Session) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// Set replaces the held token pair
func (s *Session) Set(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
}

// Clear drops the held token pair
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
}

// Do sends the request with the held access token. On a 401 it exchanges
// the refresh token exactly once and replays the request; a second 401 is
// returned as-is. Only requests with a rewindable body can be replayed,
// so callers pass a GetBody-capable request (the default for http.NewRequest
// with a bytes or strings reader).
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	token := s.Get()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	if err := s.refresh(); err != nil {
		return nil, err
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+s.Get())
	return s.httpClient.Do(retry)
}

// refresh exchanges the held refresh token for a new pair
func (s *Session) refresh() error {
	s.mu.RLock()
	refreshToken := s.refreshToken
	s.mu.RUnlock()
	if refreshToken == "" {
		return ErrNotAuthenticated
	}

	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Post(s.baseURL+"/auth/refresh", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.Clear()
		return ErrNotAuthenticated
	}

	var pair struct {
		AccessToken  string `json:"token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return err
	}
	s.Set(pair.AccessToken, pair.RefreshToken)
	return nil
}
