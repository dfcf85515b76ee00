package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Profile holds the client configuration for one service account
type Profile struct {
	Name        string `yaml:"name,omitempty"`
	IssuerURL   string `yaml:"issuerURL" validate:"required,url"`
	APIEndpoint string `yaml:"apiEndpoint" validate:"required,url"`
	Region      string `yaml:"region,omitempty"`
	ClientID    string `yaml:"clientID,omitempty"`

	// HomeDir overrides where credentials and history are kept
	HomeDir string `yaml:"homeDir,omitempty"`
}

// TransformSpec describes a single modernization run for a project
type TransformSpec struct {
	Name    string `yaml:"name,omitempty"`
	Project string `yaml:"project" validate:"required"`

	// Java versions to upgrade from and to
	SourceVersion string `yaml:"sourceVersion" validate:"required,oneof=8 11 17 21"`
	TargetVersion string `yaml:"targetVersion" validate:"required,oneof=11 17 21 25"`

	// Exclude lists glob patterns left out of the uploaded archive
	Exclude []string `yaml:"exclude,omitempty"`

	// Optional execution settings
	Timeout      *Duration `yaml:"timeout,omitempty"`
	PollInterval *Duration `yaml:"pollInterval,omitempty"`
	WorkDir      string    `yaml:"workDir,omitempty"`
}

// WorkspaceSettings are the parameters for a remote development workspace
type WorkspaceSettings struct {
	Alias        string `yaml:"alias" validate:"required,max=63"`
	InstanceType string `yaml:"instanceType" validate:"required,oneof=dev.standard1.small dev.standard1.medium dev.standard1.large dev.standard1.xlarge"`
	StorageGiB   int    `yaml:"storageGiB" validate:"required,min=16,max=64"`

	// Minutes of inactivity before the workspace stops. Zero disables auto-stop.
	InactivityTimeoutMinutes int `yaml:"inactivityTimeoutMinutes" validate:"min=0,max=1440"`
}

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements custom unmarshaling for duration strings
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// MarshalYAML implements custom marshaling for Duration
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// GetName returns the run name with a default derived from the project path
func (s *TransformSpec) GetName() string {
	if s.Name != "" {
		return s.Name
	}
	base := filepath.Base(strings.TrimRight(s.Project, "/\\"))
	if base == "" || base == "." {
		return "transform"
	}
	return base
}

// GetTimeout returns the overall job timeout with a default
func (s *TransformSpec) GetTimeout() time.Duration {
	if s.Timeout != nil {
		return s.Timeout.Duration
	}
	return 6 * time.Hour // Default timeout
}

// GetPollInterval returns the status poll interval with a default
func (s *TransformSpec) GetPollInterval() time.Duration {
	if s.PollInterval != nil {
		return s.PollInterval.Duration
	}
	return 15 * time.Second
}

// GetWorkDir returns the work directory with a default
func (s *TransformSpec) GetWorkDir() string {
	if s.WorkDir != "" {
		return s.WorkDir
	}
	// Keep run outputs next to the project rather than in /tmp
	return ".upshift/output"
}

// GetClientID returns the OAuth client id with a default
func (p *Profile) GetClientID() string {
	if p.ClientID != "" {
		return p.ClientID
	}
	return "upshift-cli"
}

// GetHomeDir returns the directory holding credentials and history
func (p *Profile) GetHomeDir() (string, error) {
	if p.HomeDir != "" {
		return p.HomeDir, nil
	}
	return HomeDir()
}

// HomeDir returns the base upshift directory, honoring UPSHIFT_HOME
func HomeDir() (string, error) {
	if dir := os.Getenv("UPSHIFT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".upshift"), nil
}

// CredentialsDir returns where the token cache for this profile lives
func (p *Profile) CredentialsDir() (string, error) {
	return p.GetHomeDir()
}

// HistoryPath returns the job history database location
func (p *Profile) HistoryPath() (string, error) {
	dir, err := p.GetHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
