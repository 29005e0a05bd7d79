package mongodb

import "time"

// StepKind names what a reconciliation step acted on.
type StepKind string

const (
	StepCollection StepKind = "collection"
	StepIndex      StepKind = "index"
)

// Outcome is the result of a reconciliation step.
type Outcome string

const (
	OutcomeCreated       Outcome = "created"
	OutcomeAlreadyExists Outcome = "already_exists"
	OutcomeFailed        Outcome = "failed"
)

// Phase tracks bootstrap progress.
type Phase string

const (
	PhaseNotStarted        Phase = "not_started"
	PhaseConnectivityCheck Phase = "connectivity_check"
	PhaseStructureEnsuring Phase = "structure_ensuring"
	PhaseClosing           Phase = "closing"
	PhaseSuccess           Phase = "success"
	PhaseFailure           Phase = "failure"
)

// StepResult records one ensured collection or index. Failed steps are the
// non-fatal ones where the driver reported that nothing was created.
type StepResult struct {
	Kind       StepKind `json:"kind"`
	Collection string   `json:"collection"`
	Index      string   `json:"index,omitempty"`
	Outcome    Outcome  `json:"outcome"`
	Reason     string   `json:"reason,omitempty"`
}

// Report aggregates the steps of one Bootstrap call.
type Report struct {
	UID      string        `json:"uid"`
	Phase    Phase         `json:"phase"`
	Steps    []StepResult  `json:"steps"`
	Warnings []string      `json:"warnings,omitempty"`
	Duration time.Duration `json:"duration"`
}

func newReport(uid string) *Report {
	return &Report{UID: uid, Phase: PhaseNotStarted}
}

// Count returns the number of steps with the given outcome.
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, s := range r.Steps {
		if s.Outcome == outcome {
			n++
		}
	}
	return n
}

// Created returns the number of collections and indexes created.
func (r *Report) Created() int {
	return r.Count(OutcomeCreated)
}

// Succeeded reports whether the run reached PhaseSuccess.
func (r *Report) Succeeded() bool {
	return r.Phase == PhaseSuccess
}
