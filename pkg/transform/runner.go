package transform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/upshift-tools/upshift/pkg/archive"
	"github.com/upshift-tools/upshift/pkg/client"
	"github.com/upshift-tools/upshift/pkg/config"
	"github.com/upshift-tools/upshift/pkg/history"
	"github.com/upshift-tools/upshift/pkg/util"
	"gopkg.in/yaml.v3"
)

const (
	// PlanFile is written into the work directory once the plan is known
	PlanFile = "plan.yaml"

	// ResultDir holds the downloaded artifact and its extraction
	ResultDir = "result"

	// ArtifactFile is the downloaded result archive
	ArtifactFile = "patch.zip"

	// UploadKind tags archive uploads for the service
	UploadKind = "transform-input"

	// The plan usually appears within minutes even when the whole job
	// runs for hours
	planTimeout = 15 * time.Minute

	stopGrace = 10 * time.Second
)

// Runner drives one transformation job end to end
type Runner struct {
	Client  *client.Client
	History *history.Store // optional
	Profile string
}

// StartedJob is a submitted job that has not been followed yet
type StartedJob struct {
	Job       *client.Job
	WorkDir   string
	Manifest  *archive.Manifest
	Spec      *config.TransformSpec
	StartedAt time.Time
}

// Result summarizes a finished run
type Result struct {
	JobID    string
	Status   string
	Duration time.Duration
	WorkDir  string
	PlanPath string
	Artifact string
	Plan     *client.Plan
}

// Run packages, uploads, starts and follows a job to completion
func (r *Runner) Run(ctx context.Context, spec *config.TransformSpec) (*Result, error) {
	started, err := r.Start(ctx, spec)
	if err != nil {
		return nil, err
	}
	return r.Watch(ctx, started)
}

// Start packages and uploads the project and starts the remote job
func (r *Runner) Start(ctx context.Context, spec *config.TransformSpec) (*StartedJob, error) {
	log := util.GetLogger()

	if err := config.ValidateTransformSpec(spec); err != nil {
		return nil, err
	}

	project, err := archive.DiscoverProject(spec.Project)
	if err != nil {
		return nil, err
	}
	log.Info("Discovered project", "kind", project.Kind, "modules", len(project.BuildFiles))

	workDir, err := PrepareWorkDir(spec.GetWorkDir(), spec.GetName())
	if err != nil {
		return nil, err
	}

	// Step 1: package the project
	log.Info("Packaging project", "root", project.Root)
	manifest, err := archive.Package(project.Root, workDir, archive.Options{Exclude: spec.Exclude})
	if err != nil {
		return nil, fmt.Errorf("failed to package project: %w", err)
	}
	log.Info("Project packaged", "archive", manifest.Path, "files", manifest.Files, "sha256", manifest.SHA256)

	// Step 2: upload the archive
	upload, err := r.Client.CreateUpload(ctx, client.CreateUploadRequest{
		SHA256: manifest.SHA256,
		Size:   manifest.Bytes,
		Kind:   UploadKind,
	})
	if err != nil {
		return nil, err
	}
	if err := r.Client.UploadArchive(ctx, upload, manifest.Path); err != nil {
		return nil, err
	}
	log.Info("Archive uploaded", "uploadID", upload.ID)

	// Step 3: start the job
	job, err := r.Client.StartJob(ctx, client.StartJobRequest{
		UploadID:      upload.ID,
		SourceVersion: spec.SourceVersion,
		TargetVersion: spec.TargetVersion,
		ClientToken:   uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	log.Info("Transformation job started", "jobID", job.ID, "source", spec.SourceVersion, "target", spec.TargetVersion)

	r.record(&history.Job{
		ID:        job.ID,
		Profile:   r.Profile,
		Project:   project.Root,
		Source:    spec.SourceVersion,
		Target:    spec.TargetVersion,
		Status:    job.Status,
		WorkDir:   workDir,
		StartedAt: time.Now(),
	})

	return &StartedJob{
		Job:       job,
		WorkDir:   workDir,
		Manifest:  manifest,
		Spec:      spec,
		StartedAt: time.Now(),
	}, nil
}

// Watch follows a started job: plan, completion, artifact
func (r *Runner) Watch(ctx context.Context, started *StartedJob) (*Result, error) {
	log := util.GetLogger()
	spec := started.Spec
	jobID := started.Job.ID

	jobs := &recordingGetter{api: r.Client, history: r.History, last: started.Job.Status}

	// Step 4: wait for the plan
	log.Info("Waiting for transformation plan", "jobID", jobID)
	if _, err := Poll(ctx, jobs, jobID, PlanReadyStates, spec.GetPollInterval(), planTimeout); err != nil {
		return nil, r.fail(ctx, jobID, err)
	}

	plan, err := r.Client.GetPlan(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plan: %w", err)
	}
	planPath := filepath.Join(started.WorkDir, PlanFile)
	if err := savePlan(plan, planPath); err != nil {
		return nil, err
	}
	log.Info("Transformation plan ready", "jobID", jobID, "steps", len(plan.Steps), "plan", planPath)

	// Step 5: wait for completion
	log.Info("Waiting for job completion", "jobID", jobID, "timeout", spec.GetTimeout())
	job, err := Poll(ctx, jobs, jobID, SucceededStates, spec.GetPollInterval(), spec.GetTimeout())
	if err != nil {
		return nil, r.fail(ctx, jobID, err)
	}
	log.Info("Job finished", "jobID", jobID, "status", job.Status)

	// Step 6: download the result artifact
	dl, err := r.Client.CreateArtifactDownload(ctx, jobID)
	if err != nil {
		return nil, err
	}
	artifact := filepath.Join(started.WorkDir, ResultDir, ArtifactFile)
	if err := r.Client.DownloadArtifact(ctx, dl, artifact); err != nil {
		return nil, err
	}

	r.finish(jobID, job.Status, job.Reason, artifact)

	return &Result{
		JobID:    jobID,
		Status:   job.Status,
		Duration: time.Since(started.StartedAt),
		WorkDir:  started.WorkDir,
		PlanPath: planPath,
		Artifact: artifact,
		Plan:     plan,
	}, nil
}

// fail settles the history row and, when the run was canceled or timed
// out locally, makes a best effort to stop the remote job
func (r *Runner) fail(ctx context.Context, jobID string, err error) error {
	log := util.GetLogger()

	var jf *JobFailedError
	if errors.As(err, &jf) {
		r.finish(jobID, jf.Status, jf.Reason, "")
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrPollTimeout) {
		reason := "canceled"
		if errors.Is(err, ErrPollTimeout) {
			reason = "client timeout"
		}

		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopGrace)
		defer cancel()
		if stopErr := r.Client.StopJob(stopCtx, jobID); stopErr != nil {
			log.V(1).Info("Failed to stop job", "jobID", jobID, "error", stopErr.Error())
		} else {
			log.Info("Requested job stop", "jobID", jobID, "reason", reason)
		}
		r.update(jobID, StatusStopping, reason)
	}

	return err
}

func (r *Runner) record(j *history.Job) {
	if r.History == nil {
		return
	}
	if err := r.History.Record(j); err != nil {
		util.GetLogger().V(1).Info("Failed to record job", "jobID", j.ID, "error", err.Error())
	}
}

func (r *Runner) update(id, status, reason string) {
	if r.History == nil {
		return
	}
	if err := r.History.UpdateStatus(id, status, reason); err != nil {
		util.GetLogger().V(1).Info("Failed to update job", "jobID", id, "error", err.Error())
	}
}

func (r *Runner) finish(id, status, reason, artifact string) {
	if r.History == nil {
		return
	}
	if err := r.History.Finish(id, status, reason, artifact, time.Now()); err != nil {
		util.GetLogger().V(1).Info("Failed to finish job record", "jobID", id, "error", err.Error())
	}
}

// recordingGetter mirrors observed status changes into the history store
type recordingGetter struct {
	api     JobGetter
	history *history.Store
	last    string
}

func (g *recordingGetter) GetJob(ctx context.Context, id string) (*client.Job, error) {
	job, err := g.api.GetJob(ctx, id)
	if err != nil || g.history == nil {
		return job, err
	}
	if job.Status != g.last {
		g.last = job.Status
		if uerr := g.history.UpdateStatus(job.ID, job.Status, job.Reason); uerr != nil {
			util.GetLogger().V(1).Info("Failed to record status change", "jobID", job.ID, "error", uerr.Error())
		}
	}
	return job, nil
}

func savePlan(plan *client.Plan, path string) error {
	data, err := yaml.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	return nil
}
