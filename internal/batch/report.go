package batch

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shopops/pickticket/constants"
)

// Result is the final state of one order within a batch.
type Result struct {
	OrderID     string
	OrderName   string
	Outcome     constants.JobOutcome
	Stage       constants.Stage // set only when Outcome is FAILED
	Reason      string          // set only when Outcome is FAILED
	CompletedAt time.Time
}

// Report enumerates every order's final outcome for a completed batch.
// No order is ever silently dropped.
type Report struct {
	BatchID    uuid.UUID
	Results    []Result
	StartedAt  time.Time
	FinishedAt time.Time
}

// Count returns how many orders finished with the given outcome.
func (r *Report) Count(outcome constants.JobOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// UntaggedPrints returns how many orders were physically printed but
// failed the tag step. These re-print on retry; the operator is warned.
func (r *Report) UntaggedPrints() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == constants.OutcomeFailed && res.Stage == constants.StageTag {
			n++
		}
	}
	return n
}

// Add appends results recorded outside the executor, e.g. orders that
// failed fetch or normalization before the batch started.
func (r *Report) Add(results ...Result) {
	r.Results = append(r.Results, results...)
	r.sortResults()
}

// sortResults orders the report by order name. Processing order carries
// no meaning; the stable sort is for readability only.
func (r *Report) sortResults() {
	sort.Slice(r.Results, func(i, j int) bool {
		if r.Results[i].OrderName == r.Results[j].OrderName {
			return r.Results[i].OrderID < r.Results[j].OrderID
		}
		return r.Results[i].OrderName < r.Results[j].OrderName
	})
}
