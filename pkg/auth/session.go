package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity describes who the current session belongs to
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// ParseIdentity extracts identity claims from an access token. The token
// is parsed without signature verification, the result is display-only
// and never used to authorize anything locally. Opaque tokens return an
// error and the caller should ask the service instead.
func ParseIdentity(accessToken string) (*Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("access token is not a parseable JWT: %w", err)
	}

	id := &Identity{}
	if sub, err := claims.GetSubject(); err == nil {
		id.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		id.Name = name
	}

	if id.Subject == "" && id.Email == "" {
		return nil, fmt.Errorf("access token carries no identity claims")
	}
	return id, nil
}
