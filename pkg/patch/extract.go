// Package patch inspects and applies the result archive of a finished
// transformation job.
package patch

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// SummaryFile is the human-readable change summary inside a result archive
const SummaryFile = "summary.md"

// Result archives are produced by the service, but treat them like any
// other downloaded zip
const maxEntryBytes = 1 << 30

// Extract unpacks a result archive into dir and returns the extracted
// paths relative to dir, sorted
func Extract(artifactPath, dir string) ([]string, error) {
	zr, err := zip.OpenReader(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open result archive: %w", err)
	}
	defer zr.Close()

	var files []string
	for _, f := range zr.File {
		rel, err := sanitizeEntry(f.Name)
		if err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() {
			continue
		}
		if err := extractFile(f, filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", rel, err)
		}
		files = append(files, rel)
	}

	sort.Strings(files)
	return files, nil
}

func extractFile(f *zip.File, dest string) error {
	if f.UncompressedSize64 > maxEntryBytes {
		return fmt.Errorf("entry exceeds %d bytes", int64(maxEntryBytes))
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	// Guard against entries that lie about their uncompressed size
	_, err = io.Copy(out, io.LimitReader(rc, maxEntryBytes+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
	}
	return err
}

// sanitizeEntry rejects entry names that would escape the target
// directory
func sanitizeEntry(name string) (string, error) {
	if name == "" || strings.Contains(name, `\`) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("unsafe archive entry %q", name)
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("unsafe archive entry %q", name)
	}
	return clean, nil
}

// Summary returns the contents of the change summary in an extracted
// result directory, or "" when the archive carried none
func Summary(resultDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(resultDir, SummaryFile))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read summary: %w", err)
	}
	return string(data), nil
}
