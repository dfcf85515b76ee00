package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/upshift-tools/upshift/pkg/auth"
)

// staticTokens is a TokenSource returning a fixed token
type staticTokens string

func (s staticTokens) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotUA, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-Id")
		json.NewEncoder(w).Encode(User{ID: "user-1"})
	}))
	defer server.Close()

	c := New(server.URL, staticTokens("tok-123"))
	if _, err := c.GetUser(context.Background()); err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %v, want Bearer tok-123", gotAuth)
	}
	if gotUA != "upshift/"+Version {
		t.Errorf("User-Agent = %v", gotUA)
	}
	if gotRequestID == "" {
		t.Error("X-Request-Id header missing")
	}
}

func TestAPIErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"code":      "ConflictException",
			"message":   "job already running for this upload",
			"requestId": "req-9",
		})
	}))
	defer server.Close()

	c := New(server.URL, staticTokens("tok"))
	_, err := c.StartJob(context.Background(), StartJobRequest{UploadID: "up-1"})
	if err == nil {
		t.Fatal("StartJob() expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an *APIError", err)
	}
	if apiErr.Code != "ConflictException" {
		t.Errorf("Code = %v", apiErr.Code)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("StatusCode = %v", apiErr.StatusCode)
	}
	if apiErr.RequestID != "req-9" {
		t.Errorf("RequestID = %v", apiErr.RequestID)
	}
}

func TestUnauthorizedWrapsNotSignedIn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"code": "Unauthorized", "message": "token expired"})
	}))
	defer server.Close()

	c := New(server.URL, staticTokens("stale"))
	_, err := c.GetUser(context.Background())
	if !errors.Is(err, auth.ErrNotSignedIn) {
		t.Errorf("GetUser() error = %v, want it to wrap ErrNotSignedIn", err)
	}
}

func TestReadRetriesOnServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(Job{ID: "job-1", Status: "PLANNING"})
	}))
	defer server.Close()

	c := New(server.URL, staticTokens("tok"))
	job, err := c.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if job.Status != "PLANNING" {
		t.Errorf("Status = %v", job.Status)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestReadRetriesExhausted(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(server.URL, staticTokens("tok"))
	if _, err := c.GetJob(context.Background(), "job-1"); err == nil {
		t.Fatal("GetJob() expected error")
	}
	if calls != maxReadRetries {
		t.Errorf("calls = %d, want %d", calls, maxReadRetries)
	}
}

func TestWritesAreNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, staticTokens("tok"))
	if _, err := c.StartJob(context.Background(), StartJobRequest{UploadID: "up-1"}); err == nil {
		t.Fatal("StartJob() expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on writes)", calls)
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"code": "NotFound", "message": "no such job"})
	}))
	defer server.Close()

	c := New(server.URL, staticTokens("tok"))
	if _, err := c.GetJob(context.Background(), "missing"); err == nil {
		t.Fatal("GetJob() expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (404 is terminal)", calls)
	}
}
