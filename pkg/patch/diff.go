package patch

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
)

// File change kinds in a preview
const (
	FileAdded    = "added"
	FileModified = "modified"
)

// FileDiff is the pending change to one project file
type FileDiff struct {
	Path   string
	Status string
	Diff   string
}

// Preview describes what applying a result would change
type Preview struct {
	Files    []FileDiff
	Added    int
	Modified int
}

// BuildPreview compares an extracted result directory against the
// project and returns a unified diff per changed file. Files that are
// byte-identical on both sides are left out.
func BuildPreview(projectRoot, resultDir string) (*Preview, error) {
	files, err := collectResultFiles(resultDir)
	if err != nil {
		return nil, err
	}

	preview := &Preview{}
	for _, rel := range files {
		after, err := os.ReadFile(filepath.Join(resultDir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("failed to read result file %s: %w", rel, err)
		}

		before, err := os.ReadFile(filepath.Join(projectRoot, filepath.FromSlash(rel)))
		switch {
		case os.IsNotExist(err):
			diff, derr := unifiedDiff(rel, nil, after)
			if derr != nil {
				return nil, derr
			}
			preview.Files = append(preview.Files, FileDiff{Path: rel, Status: FileAdded, Diff: diff})
			preview.Added++
		case err != nil:
			return nil, fmt.Errorf("failed to read project file %s: %w", rel, err)
		case bytes.Equal(before, after):
			continue
		default:
			diff, derr := unifiedDiff(rel, before, after)
			if derr != nil {
				return nil, derr
			}
			preview.Files = append(preview.Files, FileDiff{Path: rel, Status: FileModified, Diff: diff})
			preview.Modified++
		}
	}

	return preview, nil
}

func unifiedDiff(rel string, before, after []byte) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + rel,
		ToFile:   "b/" + rel,
		Context:  3,
	}

	diffText, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to generate diff for %s: %w", rel, err)
	}
	return diffText, nil
}

// collectResultFiles lists the files of an extracted result directory
// relative to it, sorted, without the summary
func collectResultFiles(resultDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(resultDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(resultDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == SummaryFile {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk result directory: %w", err)
	}
	sort.Strings(files)
	return files, nil
}
