package constants

// JobOutcome is the canonical per-order state inside a batch.
type JobOutcome string

// Stable values (these exact strings appear in reports and the audit store).
const (
	OutcomePending  JobOutcome = "PENDING"  // queued, not yet dispatched
	OutcomeRendered JobOutcome = "RENDERED" // document generated
	OutcomePrinted  JobOutcome = "PRINTED"  // accepted by the print sink
	OutcomeTagged   JobOutcome = "TAGGED"   // "printed" tag committed upstream
	OutcomeFailed   JobOutcome = "FAILED"   // terminal failure, see stage + reason
)

// Terminal reports whether the outcome can no longer change.
// PRINTED is terminal only when tagging is disabled for the batch;
// the executor decides that, not the value itself.
func (o JobOutcome) Terminal() bool {
	return o == OutcomeTagged || o == OutcomeFailed
}

// Stage identifies the pipeline step a failure occurred in.
type Stage string

const (
	StageDispatch Stage = "dispatch"
	StageRender   Stage = "render"
	StagePrint    Stage = "print"
	StageTag      Stage = "tag"
)
