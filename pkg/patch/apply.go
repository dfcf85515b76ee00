package patch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/upshift-tools/upshift/pkg/archive"
	"github.com/upshift-tools/upshift/pkg/util"
)

// Apply copies the files of an extracted result directory into the
// project, overwriting existing files. The target must look like a Java
// project so a stray path cannot be sprayed with archive contents.
// It returns the number of files written.
func Apply(projectRoot, resultDir string) (int, error) {
	log := util.GetLogger()

	if _, err := archive.DiscoverProject(projectRoot); err != nil {
		return 0, fmt.Errorf("refusing to apply outside a project: %w", err)
	}

	files, err := collectResultFiles(resultDir)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, rel := range files {
		src := filepath.Join(resultDir, filepath.FromSlash(rel))
		dest := filepath.Join(projectRoot, filepath.FromSlash(rel))
		if err := copyFile(src, dest); err != nil {
			return applied, fmt.Errorf("failed to apply %s: %w", rel, err)
		}
		log.V(1).Info("Applied file", "path", rel)
		applied++
	}

	return applied, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}
