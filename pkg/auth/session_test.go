package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestParseIdentity(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub":   "user-42",
		"email": "dev@example.com",
		"name":  "Dev Example",
	})

	id, err := ParseIdentity(token)
	if err != nil {
		t.Fatalf("ParseIdentity() error = %v", err)
	}

	if id.Subject != "user-42" {
		t.Errorf("Subject = %v, want user-42", id.Subject)
	}
	if id.Email != "dev@example.com" {
		t.Errorf("Email = %v", id.Email)
	}
	if id.Name != "Dev Example" {
		t.Errorf("Name = %v", id.Name)
	}
}

func TestParseIdentitySubjectOnly(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "user-42"})

	id, err := ParseIdentity(token)
	if err != nil {
		t.Fatalf("ParseIdentity() error = %v", err)
	}
	if id.Subject != "user-42" || id.Email != "" {
		t.Errorf("identity = %+v", id)
	}
}

func TestParseIdentityErrors(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"opaque token", "aoal-not-a-jwt"},
		{"no identity claims", signedTokenNoID(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseIdentity(tt.token); err == nil {
				t.Error("ParseIdentity() expected error, got nil")
			}
		})
	}
}

func signedTokenNoID(t *testing.T) string {
	return signedToken(t, jwt.MapClaims{"scope": "transform:write"})
}
