package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultProfileName is used when no profile is named on the command line
const DefaultProfileName = "default"

// ResolveProfilePath maps a profile name or file path to the file to load.
// Anything containing a path separator or a .yaml suffix is treated as a path;
// bare names resolve to <home>/profiles/<name>.yaml.
func ResolveProfilePath(nameOrPath string) (string, error) {
	if nameOrPath == "" {
		nameOrPath = DefaultProfileName
	}
	if strings.ContainsAny(nameOrPath, `/\`) || strings.HasSuffix(nameOrPath, ".yaml") || strings.HasSuffix(nameOrPath, ".yml") {
		return nameOrPath, nil
	}
	home, err := HomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, "profiles", nameOrPath+".yaml"), nil
}

// LoadProfile reads and parses a profile by name or path
func LoadProfile(nameOrPath string) (*Profile, error) {
	path, err := ResolveProfilePath(nameOrPath)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := loadYAML(path, &profile); err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", nameOrPath, err)
	}
	if profile.Name == "" {
		profile.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := ValidateProfile(&profile); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", nameOrPath, err)
	}

	return &profile, nil
}

// SaveProfile writes a profile under its resolved path
func SaveProfile(profile *Profile, nameOrPath string) (string, error) {
	path, err := ResolveProfilePath(nameOrPath)
	if err != nil {
		return "", err
	}
	if err := saveYAML(path, profile); err != nil {
		return "", fmt.Errorf("failed to save profile: %w", err)
	}
	return path, nil
}

// LoadTransformSpec reads and parses a transform spec from a YAML file.
// A relative project path is resolved against the spec file's directory.
func LoadTransformSpec(path string) (*TransformSpec, error) {
	var spec TransformSpec
	if err := loadYAML(path, &spec); err != nil {
		return nil, fmt.Errorf("failed to load transform spec %s: %w", path, err)
	}

	if spec.Project != "" && !filepath.IsAbs(spec.Project) {
		spec.Project = filepath.Join(filepath.Dir(path), spec.Project)
	}

	if err := ValidateTransformSpec(&spec); err != nil {
		return nil, fmt.Errorf("invalid transform spec %s: %w", path, err)
	}

	return &spec, nil
}

// SaveTransformSpec writes a transform spec to the given path
func SaveTransformSpec(spec *TransformSpec, path string) error {
	if err := saveYAML(path, spec); err != nil {
		return fmt.Errorf("failed to save transform spec: %w", err)
	}
	return nil
}

// LoadWorkspaceSettings reads and parses workspace settings from a YAML file
func LoadWorkspaceSettings(path string) (*WorkspaceSettings, error) {
	var settings WorkspaceSettings
	if err := loadYAML(path, &settings); err != nil {
		return nil, fmt.Errorf("failed to load workspace settings %s: %w", path, err)
	}

	if err := ValidateWorkspaceSettings(&settings); err != nil {
		return nil, fmt.Errorf("invalid workspace settings %s: %w", path, err)
	}

	return &settings, nil
}

// SaveWorkspaceSettings writes workspace settings to the given path
func SaveWorkspaceSettings(settings *WorkspaceSettings, path string) error {
	if err := saveYAML(path, settings); err != nil {
		return fmt.Errorf("failed to save workspace settings: %w", err)
	}
	return nil
}

// loadYAML decodes a YAML file into out, rejecting unknown fields
func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("file is empty")
		}
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// saveYAML marshals v and writes it, creating parent directories as needed
func saveYAML(path string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
