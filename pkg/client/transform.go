package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/upshift-tools/upshift/pkg/util"
)

// CreateUpload asks the service for a presigned upload target
func (c *Client) CreateUpload(ctx context.Context, req CreateUploadRequest) (*Upload, error) {
	var upload Upload
	if err := c.post(ctx, "/v1/uploads", req, &upload); err != nil {
		return nil, fmt.Errorf("failed to create upload: %w", err)
	}
	if upload.URL == "" {
		return nil, fmt.Errorf("service returned an upload without a URL")
	}
	return &upload, nil
}

// UploadArchive streams the archive to the presigned URL. The URL embeds
// its own authorization, no bearer token is attached.
func (c *Client) UploadArchive(ctx context.Context, upload *Upload, path string) error {
	log := util.GetLogger()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, upload.URL, file)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/zip")
	for k, v := range upload.Headers {
		req.Header.Set(k, v)
	}

	log.Info("Uploading archive", "path", path, "bytes", info.Size())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("archive upload failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("archive upload returned status %d", resp.StatusCode)
	}
	return nil
}

// StartJob starts a transformation for an uploaded archive
func (c *Client) StartJob(ctx context.Context, req StartJobRequest) (*Job, error) {
	var job Job
	if err := c.post(ctx, "/v1/jobs", req, &job); err != nil {
		return nil, fmt.Errorf("failed to start job: %w", err)
	}
	if job.ID == "" {
		return nil, fmt.Errorf("service returned a job without an id")
	}
	return &job, nil
}

// GetJob fetches the current state of a job
func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := c.get(ctx, "/v1/jobs/"+url.PathEscape(id), &job); err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return &job, nil
}

// GetPlan fetches the transformation plan of a job
func (c *Client) GetPlan(ctx context.Context, id string) (*Plan, error) {
	var plan Plan
	if err := c.get(ctx, "/v1/jobs/"+url.PathEscape(id)+"/plan", &plan); err != nil {
		return nil, fmt.Errorf("failed to get plan for job %s: %w", id, err)
	}
	if plan.JobID == "" {
		plan.JobID = id
	}
	return &plan, nil
}

// StopJob asks the service to stop a job. Stopping an already terminal
// job is not an error.
func (c *Client) StopJob(ctx context.Context, id string) error {
	if err := c.post(ctx, "/v1/jobs/"+url.PathEscape(id)+"/stop", nil, nil); err != nil {
		return fmt.Errorf("failed to stop job %s: %w", id, err)
	}
	return nil
}

// CreateArtifactDownload asks the service for a presigned download of the
// result archive
func (c *Client) CreateArtifactDownload(ctx context.Context, id string) (*ArtifactDownload, error) {
	var dl ArtifactDownload
	if err := c.post(ctx, "/v1/jobs/"+url.PathEscape(id)+"/artifact", nil, &dl); err != nil {
		return nil, fmt.Errorf("failed to create artifact download for job %s: %w", id, err)
	}
	if dl.URL == "" {
		return nil, fmt.Errorf("service returned an artifact download without a URL")
	}
	return &dl, nil
}

// DownloadArtifact streams the artifact to dest and verifies its checksum
// when the service supplied one. The file appears at dest only after a
// complete, verified download.
func (c *Client) DownloadArtifact(ctx context.Context, dl *ArtifactDownload, dest string) error {
	log := util.GetLogger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dl.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("artifact download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("artifact download returned status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp := dest + ".partial"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}

	hash := sha256.New()
	written, err := io.Copy(io.MultiWriter(file, hash), resp.Body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	if dl.SHA256 != "" {
		sum := hex.EncodeToString(hash.Sum(nil))
		if sum != dl.SHA256 {
			os.Remove(tmp)
			return fmt.Errorf("artifact checksum mismatch: got %s, want %s", sum, dl.SHA256)
		}
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to store artifact: %w", err)
	}

	log.Info("Artifact downloaded", "path", dest, "bytes", written)
	return nil
}
