package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNoBuildFile indicates the directory holds no recognized Java project
var ErrNoBuildFile = errors.New("no pom.xml or build.gradle found")

// Project kinds
const (
	KindMaven  = "maven"
	KindGradle = "gradle"
)

// Project describes a discovered Java project
type Project struct {
	Kind string
	Root string

	// BuildFiles lists every build manifest found, relative to Root with
	// forward slashes. Multi-module projects have more than one.
	BuildFiles []string
}

// DiscoverProject classifies the build system at root and collects the
// build manifests of all modules
func DiscoverProject(root string) (*Project, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read project path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path %s is not a directory", root)
	}

	var kind string
	switch {
	case fileExists(filepath.Join(root, "pom.xml")):
		kind = KindMaven
	case fileExists(filepath.Join(root, "build.gradle")) || fileExists(filepath.Join(root, "build.gradle.kts")):
		kind = KindGradle
	default:
		return nil, fmt.Errorf("%s: %w", root, ErrNoBuildFile)
	}

	project := &Project{Kind: kind, Root: root}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		switch d.Name() {
		case "pom.xml", "build.gradle", "build.gradle.kts":
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			project.BuildFiles = append(project.BuildFiles, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	return project, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
