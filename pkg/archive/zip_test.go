package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// writeTree creates files under root from rel path to content
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func archiveEntries(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestPackageDeterministic(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pom.xml":                    "<project/>",
		"src/main/java/App.java":     "class App {}",
		"src/main/java/Helper.java":  "class Helper {}",
		"src/main/resources/app.yml": "name: demo",
	})

	first, err := Package(root, filepath.Join(t.TempDir(), "a"), Options{})
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}
	second, err := Package(root, filepath.Join(t.TempDir(), "b"), Options{})
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}

	if first.SHA256 != second.SHA256 {
		t.Errorf("checksums differ for identical trees: %s vs %s", first.SHA256, second.SHA256)
	}

	a, err := os.ReadFile(first.Path)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(second.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("archives are not byte-identical for identical trees")
	}

	if first.Files != 4 {
		t.Errorf("Files = %d, want 4", first.Files)
	}
	if first.Bytes != int64(len(a)) {
		t.Errorf("Bytes = %d, want archive size %d", first.Bytes, len(a))
	}
}

func TestPackageChecksumChangesWithContent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pom.xml":                "<project/>",
		"src/main/java/App.java": "class App {}",
	})

	before, err := Package(root, filepath.Join(t.TempDir(), "a"), Options{})
	if err != nil {
		t.Fatal(err)
	}

	writeTree(t, root, map[string]string{"src/main/java/App.java": "class App { int x; }"})

	after, err := Package(root, filepath.Join(t.TempDir(), "b"), Options{})
	if err != nil {
		t.Fatal(err)
	}

	if before.SHA256 == after.SHA256 {
		t.Error("checksum did not change after editing a source file")
	}
}

func TestPackageSkipsBuildOutputAndVCS(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pom.xml":                   "<project/>",
		"src/main/java/App.java":    "class App {}",
		".git/HEAD":                 "ref: refs/heads/main",
		".idea/workspace.xml":       "<xml/>",
		"target/classes/App.class":  "bytecode",
		"build/tmp/whatever":        "junk",
		".upshift/output/old/x.zip": "old run",
	})

	manifest, err := Package(root, t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}

	entries := archiveEntries(t, manifest.Path)
	want := []string{"pom.xml", "src/main/java/App.java"}
	if len(entries) != len(want) {
		t.Fatalf("entries = %v, want %v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entries[%d] = %v, want %v", i, entries[i], want[i])
		}
	}
}

func TestPackageExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pom.xml":                "<project/>",
		"src/main/java/App.java": "class App {}",
		"debug.log":              "noise",
		"src/trace.log":          "noise",
		"docs/guide.md":          "# guide",
	})

	manifest, err := Package(root, t.TempDir(), Options{Exclude: []string{"*.log", "docs/*"}})
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}

	entries := archiveEntries(t, manifest.Path)
	for _, name := range entries {
		if strings.HasSuffix(name, ".log") || strings.HasPrefix(name, "docs/") {
			t.Errorf("excluded entry %s is present in the archive", name)
		}
	}
	if len(entries) != 2 {
		t.Errorf("entries = %v, want pom.xml and App.java only", entries)
	}
}

func TestPackageArchivePathsAreRelativeSlash(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pom.xml":                "<project/>",
		"src/main/java/App.java": "class App {}",
	})

	manifest, err := Package(root, t.TempDir(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range archiveEntries(t, manifest.Path) {
		if strings.HasPrefix(name, "/") || strings.Contains(name, `\`) || strings.Contains(name, "..") {
			t.Errorf("entry %q is not a clean relative slash path", name)
		}
	}
}

func TestPackageEmptyProject(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"all.log": "x"})

	_, err := Package(root, t.TempDir(), Options{Exclude: []string{"*.log"}})
	if err == nil || !strings.Contains(err.Error(), "no files") {
		t.Errorf("Package() error = %v, want no-files error", err)
	}
}

func TestDiscoverProject(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		wantKind string
		wantErr  error
	}{
		{
			name:     "maven",
			files:    map[string]string{"pom.xml": "<project/>"},
			wantKind: KindMaven,
		},
		{
			name:     "gradle",
			files:    map[string]string{"build.gradle": "plugins {}"},
			wantKind: KindGradle,
		},
		{
			name:     "gradle kotlin dsl",
			files:    map[string]string{"build.gradle.kts": "plugins {}"},
			wantKind: KindGradle,
		},
		{
			name:    "no build file",
			files:   map[string]string{"README.md": "# app"},
			wantErr: ErrNoBuildFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, tt.files)

			project, err := DiscoverProject(root)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("DiscoverProject() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DiscoverProject() error = %v", err)
			}
			if project.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", project.Kind, tt.wantKind)
			}
		})
	}
}

func TestDiscoverProjectMultiModule(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pom.xml":            "<project/>",
		"core/pom.xml":       "<project/>",
		"web/pom.xml":        "<project/>",
		"target/pom.xml":     "<generated/>",
		"core/src/App.java":  "class App {}",
		"web/src/Main.java":  "class Main {}",
		"core/build/tmp/out": "junk",
	})

	project, err := DiscoverProject(root)
	if err != nil {
		t.Fatalf("DiscoverProject() error = %v", err)
	}

	sort.Strings(project.BuildFiles)
	want := []string{"core/pom.xml", "pom.xml", "web/pom.xml"}
	if len(project.BuildFiles) != len(want) {
		t.Fatalf("BuildFiles = %v, want %v", project.BuildFiles, want)
	}
	for i := range want {
		if project.BuildFiles[i] != want[i] {
			t.Errorf("BuildFiles[%d] = %v, want %v", i, project.BuildFiles[i], want[i])
		}
	}
}

func TestDiscoverProjectNotADirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"pom.xml": "<project/>"})

	_, err := DiscoverProject(filepath.Join(root, "pom.xml"))
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("DiscoverProject() error = %v, want not-a-directory", err)
	}
}
