package client

import "time"

// Job is a transformation job as reported by the service
type Job struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	Source    string     `json:"sourceVersion,omitempty"`
	Target    string     `json:"targetVersion,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

// Upload is a service-issued target for one archive upload
type Upload struct {
	ID      string            `json:"id"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// CreateUploadRequest announces an archive the client wants to upload
type CreateUploadRequest struct {
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
	Kind   string `json:"kind"`
}

// StartJobRequest starts a transformation for an uploaded archive.
// ClientToken makes the call idempotent on the service side.
type StartJobRequest struct {
	UploadID      string `json:"uploadId"`
	SourceVersion string `json:"sourceVersion"`
	TargetVersion string `json:"targetVersion"`
	ClientToken   string `json:"clientToken"`
}

// PlanStep is one entry of a transformation plan
type PlanStep struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`
}

// Plan is the ordered list of steps the service intends to apply
type Plan struct {
	JobID string     `json:"jobId" yaml:"jobID"`
	Steps []PlanStep `json:"steps" yaml:"steps"`
}

// ArtifactDownload points at the result archive of a finished job
type ArtifactDownload struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256,omitempty"`
}

// Workspace is a remote development workspace
type Workspace struct {
	ID                       string    `json:"id"`
	Alias                    string    `json:"alias"`
	InstanceType             string    `json:"instanceType"`
	StorageGiB               int       `json:"storageGiB"`
	InactivityTimeoutMinutes int       `json:"inactivityTimeoutMinutes"`
	Status                   string    `json:"status"`
	Repository               string    `json:"repository,omitempty"`
	CreatedAt                time.Time `json:"createdAt"`
}

// CreateWorkspaceRequest carries validated workspace settings
type CreateWorkspaceRequest struct {
	Alias                    string `json:"alias"`
	InstanceType             string `json:"instanceType"`
	StorageGiB               int    `json:"storageGiB"`
	InactivityTimeoutMinutes int    `json:"inactivityTimeoutMinutes"`
}

// UpdateWorkspaceRequest carries only the fields to change
type UpdateWorkspaceRequest struct {
	Alias                    *string `json:"alias,omitempty"`
	InstanceType             *string `json:"instanceType,omitempty"`
	StorageGiB               *int    `json:"storageGiB,omitempty"`
	InactivityTimeoutMinutes *int    `json:"inactivityTimeoutMinutes,omitempty"`
}

// User is the identity behind the current session
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}
