package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/upshift-tools/upshift/pkg/util"
)

// ErrNotSignedIn indicates there is no usable session for the profile
var ErrNotSignedIn = errors.New("not signed in, run 'upshift login'")

// Tokens are refreshed this long before they actually expire
const expiryMargin = 5 * time.Minute

const credentialsFile = "credentials.json"

// Token holds the credentials issued by the authorization server
type Token struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	TokenType    string    `json:"tokenType,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// usable reports whether the access token is still good for the margin
func (t *Token) usable() bool {
	if t == nil || t.AccessToken == "" || t.Expiry.IsZero() {
		return false
	}
	return time.Now().Add(expiryMargin).Before(t.Expiry)
}

// TokenSource supplies a bearer token for API calls
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenManager caches tokens on disk and refreshes them when they near expiry
type TokenManager struct {
	issuer   string
	clientID string
	path     string
	http     *http.Client

	mu    sync.Mutex
	token *Token
}

// NewTokenManager creates a token manager storing credentials under dir
func NewTokenManager(issuer, clientID, dir string) *TokenManager {
	return &TokenManager{
		issuer:   strings.TrimRight(issuer, "/"),
		clientID: clientID,
		path:     filepath.Join(dir, credentialsFile),
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns a valid access token, refreshing it if needed
func (tm *TokenManager) Token(ctx context.Context) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.token == nil {
		tm.token = tm.load()
	}

	if tm.token.usable() {
		return tm.token.AccessToken, nil
	}

	if tm.token.RefreshToken == "" {
		return "", ErrNotSignedIn
	}

	if err := tm.refreshLocked(ctx); err != nil {
		return "", err
	}
	return tm.token.AccessToken, nil
}

// SetToken stores a freshly issued token
func (tm *TokenManager) SetToken(token *Token) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("refusing to store an empty token")
	}
	if token.Expiry.IsZero() {
		return fmt.Errorf("refusing to store a token without an expiry")
	}

	if err := tm.save(token); err != nil {
		return err
	}
	tm.token = token
	return nil
}

// Clear deletes the cached credentials. A missing cache is not an error.
func (tm *TokenManager) Clear() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.token = nil
	err := os.Remove(tm.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// CachedToken returns the stored token without refreshing it, or nil
func (tm *TokenManager) CachedToken() *Token {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.token == nil {
		tm.token = tm.load()
	}
	if tm.token.AccessToken == "" {
		return nil
	}
	copied := *tm.token
	return &copied
}

// load reads the credentials file. Unreadable or corrupt caches are
// treated as signed out.
func (tm *TokenManager) load() *Token {
	log := util.GetLogger()

	data, err := os.ReadFile(tm.path)
	if err != nil {
		return &Token{}
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		log.V(1).Info("Ignoring corrupt credentials file", "path", tm.path, "error", err.Error())
		return &Token{}
	}
	return &token
}

// save writes the token atomically with owner-only permissions
func (tm *TokenManager) save(token *Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(tm.path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	tmp := tm.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := os.Rename(tmp, tm.path); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}

// refreshLocked exchanges the refresh token for a new access token.
// Callers must hold tm.mu.
func (tm *TokenManager) refreshLocked(ctx context.Context) error {
	log := util.GetLogger()
	log.V(1).Info("Refreshing access token", "issuer", tm.issuer)

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", tm.clientID)
	form.Set("refresh_token", tm.token.RefreshToken)

	token, err := requestToken(ctx, tm.http, tm.issuer, form)
	if err != nil {
		var oe *OAuthError
		if errors.As(err, &oe) && oe.Terminal() {
			// The refresh token itself was rejected, the session is gone
			return fmt.Errorf("%w: %v", ErrNotSignedIn, err)
		}
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	// Servers may omit a rotated refresh token, keep the old one then
	if token.RefreshToken == "" {
		token.RefreshToken = tm.token.RefreshToken
	}

	if err := tm.save(token); err != nil {
		return err
	}
	tm.token = token
	return nil
}

// tokenResponse is the OAuth token endpoint success payload
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// OAuthError is the error payload of the OAuth token endpoint
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code
}

// Terminal reports whether the error ends the grant rather than asking
// the client to keep waiting
func (e *OAuthError) Terminal() bool {
	switch e.Code {
	case "authorization_pending", "slow_down":
		return false
	}
	return true
}

// requestToken posts a form to the token endpoint and decodes the result
func requestToken(ctx context.Context, client *http.Client, issuer string, form url.Values) (*Token, error) {
	endpoint := issuer + "/oauth/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var oe OAuthError
		if err := json.NewDecoder(resp.Body).Decode(&oe); err != nil || oe.Code == "" {
			return nil, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
		}
		return nil, &oe
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}

	return &Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		Expiry:       time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}
