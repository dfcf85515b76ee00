package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "staging.yaml")
	writeFile(t, path, `
issuerURL: https://auth.example.com
apiEndpoint: https://api.example.com
region: eu-west-1
`)

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}

	if profile.IssuerURL != "https://auth.example.com" {
		t.Errorf("IssuerURL = %v", profile.IssuerURL)
	}
	if profile.APIEndpoint != "https://api.example.com" {
		t.Errorf("APIEndpoint = %v", profile.APIEndpoint)
	}
	if profile.Name != "staging" {
		t.Errorf("Name = %v, want staging (derived from filename)", profile.Name)
	}
}

func TestLoadProfileErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing endpoint",
			content: "issuerURL: https://auth.example.com\n",
			wantErr: "validation failed",
		},
		{
			name:    "not a URL",
			content: "issuerURL: auth\napiEndpoint: https://api.example.com\n",
			wantErr: "validation failed",
		},
		{
			name:    "unknown field",
			content: "issuerURL: https://auth.example.com\napiEndpoint: https://api.example.com\nissuer: typo\n",
			wantErr: "not found",
		},
		{
			name:    "empty file",
			content: "",
			wantErr: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "-")+".yaml")
			writeFile(t, path, tt.content)

			_, err := LoadProfile(path)
			if err == nil {
				t.Fatal("LoadProfile() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadProfile() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("LoadProfile() expected error for missing file")
	}
}

func TestResolveProfilePath(t *testing.T) {
	t.Setenv("UPSHIFT_HOME", "/home/dev/.upshift")

	tests := []struct {
		name       string
		nameOrPath string
		want       string
	}{
		{"bare name", "staging", "/home/dev/.upshift/profiles/staging.yaml"},
		{"empty defaults", "", "/home/dev/.upshift/profiles/default.yaml"},
		{"explicit path", "/etc/upshift/prod.yaml", "/etc/upshift/prod.yaml"},
		{"relative path", "./prod.yaml", "./prod.yaml"},
		{"yaml suffix", "prod.yaml", "prod.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveProfilePath(tt.nameOrPath)
			if err != nil {
				t.Fatalf("ResolveProfilePath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveProfilePath(%q) = %v, want %v", tt.nameOrPath, got, tt.want)
			}
		})
	}
}

func TestSaveProfileRoundTrip(t *testing.T) {
	t.Setenv("UPSHIFT_HOME", t.TempDir())

	in := &Profile{
		IssuerURL:   "https://auth.example.com",
		APIEndpoint: "https://api.example.com",
		Region:      "us-east-1",
	}

	path, err := SaveProfile(in, "prod")
	if err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
	if filepath.Base(path) != "prod.yaml" {
		t.Errorf("SaveProfile() path = %v, want prod.yaml under the profiles dir", path)
	}

	out, err := LoadProfile("prod")
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if out.IssuerURL != in.IssuerURL || out.APIEndpoint != in.APIEndpoint || out.Region != in.Region {
		t.Errorf("round trip mismatch: got %+v", out)
	}
}

func TestLoadTransformSpec(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "demo-app"), 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "upshift.yaml")
	writeFile(t, path, `
project: demo-app
sourceVersion: "8"
targetVersion: "17"
exclude:
  - "*.log"
timeout: 2h
pollInterval: 10s
`)

	spec, err := LoadTransformSpec(path)
	if err != nil {
		t.Fatalf("LoadTransformSpec() error = %v", err)
	}

	if spec.Project != filepath.Join(dir, "demo-app") {
		t.Errorf("Project = %v, want it resolved against the spec directory", spec.Project)
	}
	if spec.GetTimeout() != 2*time.Hour {
		t.Errorf("GetTimeout() = %v, want 2h", spec.GetTimeout())
	}
	if spec.GetPollInterval() != 10*time.Second {
		t.Errorf("GetPollInterval() = %v, want 10s", spec.GetPollInterval())
	}
	if len(spec.Exclude) != 1 || spec.Exclude[0] != "*.log" {
		t.Errorf("Exclude = %v", spec.Exclude)
	}
}

func TestLoadTransformSpecAbsoluteProject(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upshift.yaml")
	writeFile(t, path, `
project: /srv/apps/demo
sourceVersion: "11"
targetVersion: "21"
`)

	spec, err := LoadTransformSpec(path)
	if err != nil {
		t.Fatalf("LoadTransformSpec() error = %v", err)
	}
	if spec.Project != "/srv/apps/demo" {
		t.Errorf("Project = %v, want absolute path untouched", spec.Project)
	}
}

func TestLoadWorkspaceSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workspace.yaml")
	writeFile(t, path, `
alias: backend-dev
instanceType: dev.standard1.medium
storageGiB: 32
inactivityTimeoutMinutes: 30
`)

	settings, err := LoadWorkspaceSettings(path)
	if err != nil {
		t.Fatalf("LoadWorkspaceSettings() error = %v", err)
	}
	if settings.Alias != "backend-dev" {
		t.Errorf("Alias = %v", settings.Alias)
	}
	if settings.StorageGiB != 32 {
		t.Errorf("StorageGiB = %v, want 32", settings.StorageGiB)
	}
}
