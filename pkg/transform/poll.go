package transform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upshift-tools/upshift/pkg/client"
	"github.com/upshift-tools/upshift/pkg/util"
)

// ErrPollTimeout indicates the job did not reach the wanted status in time
var ErrPollTimeout = errors.New("timed out waiting for job")

// Transient status query failures tolerated before the poll gives up
const maxStatusErrors = 3

const defaultPollInterval = 15 * time.Second

// JobFailedError reports a job that ended in a failure status
type JobFailedError struct {
	JobID  string
	Status string
	Reason string
}

func (e *JobFailedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("job %s %s: %s", e.JobID, e.Status, e.Reason)
	}
	return fmt.Sprintf("job %s %s", e.JobID, e.Status)
}

// JobGetter fetches the current state of a job
type JobGetter interface {
	GetJob(ctx context.Context, id string) (*client.Job, error)
}

// Poll queries the job at a fixed interval until its status lands in want,
// it enters a failure status, the timeout elapses, or ctx is canceled.
// A status in want wins over the failure check, so callers may poll for
// failure statuses too.
func Poll(ctx context.Context, jobs JobGetter, jobID string, want StateSet, interval, timeout time.Duration) (*client.Job, error) {
	log := util.GetLogger()

	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statusErrors := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Until(deadline)):
			return nil, fmt.Errorf("%w after %v", ErrPollTimeout, timeout)
		case <-ticker.C:
			job, err := jobs.GetJob(ctx, jobID)
			if err != nil {
				statusErrors++
				if statusErrors >= maxStatusErrors {
					return nil, fmt.Errorf("failed to get job status: %w", err)
				}
				log.V(1).Info("Status query failed, will retry", "jobID", jobID, "error", err.Error())
				continue
			}
			statusErrors = 0

			log.V(1).Info("Job status", "jobID", jobID, "status", job.Status)

			switch {
			case want.Contains(job.Status):
				return job, nil
			case FailedStates.Contains(job.Status):
				return nil, &JobFailedError{JobID: jobID, Status: job.Status, Reason: job.Reason}
			case runningStates.Contains(job.Status):
				// Keep polling
				continue
			default:
				return nil, fmt.Errorf("unexpected job status: %s", job.Status)
			}
		}
	}
}
