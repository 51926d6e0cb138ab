package domain

import (
	"sort"

	"github.com/google/uuid"
)

// BatchResult maps every submitted job source to its outcome
type BatchResult struct {
	ID       uuid.UUID
	Outcomes map[string]JobOutcome
}

// NewBatchResult creates an empty result for a batch run
func NewBatchResult() *BatchResult {
	return &BatchResult{
		ID:       uuid.New(),
		Outcomes: make(map[string]JobOutcome),
	}
}

// Failed returns the outcomes that did not succeed, sorted by source
func (r *BatchResult) Failed() []JobOutcome {
	var failed []JobOutcome
	for _, o := range r.Outcomes {
		if !o.Success() {
			failed = append(failed, o)
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Source < failed[j].Source })
	return failed
}

// TotalSlides sums the slide counts of all outcomes
func (r *BatchResult) TotalSlides() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.SlideCount
	}
	return total
}
