package archive

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/upshift-tools/upshift/pkg/util"
)

const (
	// ArchiveName is the file name of the packaged project
	ArchiveName = "source.zip"

	maxFileBytes    = 1 << 30 // 1 GiB per file
	maxArchiveBytes = 2 << 30 // 2 GiB per project
)

// Entry metadata is pinned so identical trees produce identical archives
var zipEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// skipDirs are never packaged: VCS metadata, IDE state and build outputs
var skipDirs = map[string]bool{
	".git":         true,
	".idea":        true,
	".vscode":      true,
	".gradle":      true,
	".upshift":     true,
	"target":       true,
	"build":        true,
	"node_modules": true,
}

// Options control what goes into the archive
type Options struct {
	// Exclude lists glob patterns matched against the slash-separated
	// relative path and against the base name
	Exclude []string
}

// Manifest describes a packaged archive
type Manifest struct {
	Path   string
	SHA256 string
	Files  int
	Bytes  int64
}

// Package zips the project tree under root into destDir and returns the
// archive manifest. The output is deterministic: the same tree with the
// same options always produces byte-identical archives.
func Package(root, destDir string, opts Options) (*Manifest, error) {
	files, err := collectFiles(root, opts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("project %s contains no files to package", root)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(destDir, ArchiveName)
	out, err := os.Create(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	hash := sha256.New()
	zw := zip.NewWriter(io.MultiWriter(out, hash))

	for _, rel := range files {
		if err := addFile(zw, root, rel); err != nil {
			zw.Close()
			out.Close()
			os.Remove(archivePath)
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(archivePath)
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(archivePath)
		return nil, fmt.Errorf("failed to write archive: %w", err)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	return &Manifest{
		Path:   archivePath,
		SHA256: hex.EncodeToString(hash.Sum(nil)),
		Files:  len(files),
		Bytes:  info.Size(),
	}, nil
}

// collectFiles walks the tree and returns the relative paths to package,
// in the deterministic lexical order of WalkDir
func collectFiles(root string, opts Options) ([]string, error) {
	log := util.GetLogger()

	var files []string
	var total int64

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if p != root && skipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			log.Info("Skipping symlink", "path", rel)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if excluded(rel, opts.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxFileBytes {
			return fmt.Errorf("file %s exceeds the 1 GiB limit", rel)
		}
		total += info.Size()
		if total > maxArchiveBytes {
			return fmt.Errorf("project exceeds the 2 GiB upload limit")
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect project files: %w", err)
	}

	return files, nil
}

// addFile writes one entry with pinned metadata
func addFile(zw *zip.Writer, root, rel string) error {
	hdr := &zip.FileHeader{
		Name:     rel,
		Method:   zip.Deflate,
		Modified: zipEpoch,
	}
	hdr.SetMode(0644)

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", rel, err)
	}

	src, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", rel, err)
	}
	defer src.Close()

	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("failed to compress %s: %w", rel, err)
	}
	return nil
}

// excluded matches rel against the exclude patterns
func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := path.Match(pattern, path.Base(rel)); ok {
			return true
		}
	}
	return false
}
