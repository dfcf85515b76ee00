package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/upshift-tools/upshift/pkg/util"
)

// DefaultScopes are requested when a device flow does not name its own
var DefaultScopes = []string{"openid", "email", "transform:write", "workspace:write"}

// DeviceAuthorization is the response of the device authorization endpoint
type DeviceAuthorization struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval,omitempty"`
}

// DeviceFlow signs a user in without a local browser callback: the service
// shows a short code, the user confirms it on any device, and the client
// polls the token endpoint until the grant is approved.
type DeviceFlow struct {
	Issuer   string
	ClientID string
	Scopes   []string
	HTTP     *http.Client
}

func (f *DeviceFlow) client() *http.Client {
	if f.HTTP != nil {
		return f.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// Start requests a device and user code pair from the issuer
func (f *DeviceFlow) Start(ctx context.Context) (*DeviceAuthorization, error) {
	scopes := f.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	form := url.Values{}
	form.Set("client_id", f.ClientID)
	form.Set("scope", strings.Join(scopes, " "))

	endpoint := strings.TrimRight(f.Issuer, "/") + "/oauth/device/authorize"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create device authorization request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("device authorization request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("device authorization endpoint returned status %d", resp.StatusCode)
	}

	var da DeviceAuthorization
	if err := json.NewDecoder(resp.Body).Decode(&da); err != nil {
		return nil, fmt.Errorf("failed to decode device authorization: %w", err)
	}
	if da.DeviceCode == "" || da.UserCode == "" {
		return nil, fmt.Errorf("device authorization response is incomplete")
	}

	return &da, nil
}

// Wait polls the token endpoint until the user approves the grant, the
// codes expire, or ctx is canceled
func (f *DeviceFlow) Wait(ctx context.Context, da *DeviceAuthorization) (*Token, error) {
	log := util.GetLogger()

	interval := time.Duration(da.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(da.ExpiresIn) * time.Second)

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:device_code")
	form.Set("client_id", f.ClientID)
	form.Set("device_code", da.DeviceCode)

	issuer := strings.TrimRight(f.Issuer, "/")

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("device authorization expired before it was approved")
		}

		token, err := requestToken(ctx, f.client(), issuer, form)
		if err == nil {
			return token, nil
		}

		var oe *OAuthError
		if !errors.As(err, &oe) {
			return nil, err
		}

		switch oe.Code {
		case "authorization_pending":
			log.V(1).Info("Waiting for device authorization", "userCode", da.UserCode)
		case "slow_down":
			interval += 5 * time.Second
			log.V(1).Info("Token endpoint asked to slow down", "interval", interval)
		case "expired_token":
			return nil, fmt.Errorf("device code expired: %w", err)
		case "access_denied":
			return nil, fmt.Errorf("authorization was denied: %w", err)
		default:
			return nil, fmt.Errorf("device authorization failed: %w", err)
		}
	}
}
