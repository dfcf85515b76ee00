package transform

// Job statuses reported by the service
const (
	StatusCreated            = "CREATED"
	StatusAccepted           = "ACCEPTED"
	StatusPreparing          = "PREPARING"
	StatusPlanning           = "PLANNING"
	StatusPlanned            = "PLANNED"
	StatusTransforming       = "TRANSFORMING"
	StatusTransformed        = "TRANSFORMED"
	StatusCompleted          = "COMPLETED"
	StatusPartiallyCompleted = "PARTIALLY_COMPLETED"
	StatusStopping           = "STOPPING"
	StatusStopped            = "STOPPED"
	StatusFailed             = "FAILED"
	StatusRejected           = "REJECTED"
)

// StateSet is a set of job statuses
type StateSet map[string]struct{}

// NewStateSet builds a set from the given statuses
func NewStateSet(statuses ...string) StateSet {
	set := make(StateSet, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

// Contains reports whether status is in the set
func (s StateSet) Contains(status string) bool {
	_, ok := s[status]
	return ok
}

var (
	// SucceededStates are terminal statuses with a downloadable result
	SucceededStates = NewStateSet(StatusCompleted, StatusPartiallyCompleted)

	// FailedStates are terminal statuses without a result
	FailedStates = NewStateSet(StatusFailed, StatusStopped, StatusRejected)

	// PlanReadyStates are statuses at or past the point where the plan
	// can be fetched
	PlanReadyStates = NewStateSet(
		StatusPlanned,
		StatusTransforming,
		StatusTransformed,
		StatusCompleted,
		StatusPartiallyCompleted,
	)

	// runningStates keep a poll loop waiting
	runningStates = NewStateSet(
		StatusCreated,
		StatusAccepted,
		StatusPreparing,
		StatusPlanning,
		StatusPlanned,
		StatusTransforming,
		StatusTransformed,
		StatusStopping,
	)
)

// IsTerminal reports whether a status can no longer change
func IsTerminal(status string) bool {
	return SucceededStates.Contains(status) || FailedStates.Contains(status)
}
