package reviewer

import "strings"

// ApprovalToken is the marker the reviewer prompt asks the model to emit.
const ApprovalToken = "APPROVED"

// Verdict is the outcome of one review pass.
type Verdict struct {
	Iteration int
	Critique  string
	// Approved is true when the critique carries the approval token.
	Approved bool
	// Forced is true when the draft was accepted only because the iteration
	// bound was reached.
	Forced bool
}

// Accepted reports whether the draft leaves the rework loop.
func (v Verdict) Accepted() bool {
	return v.Approved || v.Forced
}

// ParseVerdict classifies critique for the given 1-based iteration.
func ParseVerdict(critique string, iteration, maxIterations int) Verdict {
	approved := strings.Contains(strings.ToUpper(critique), ApprovalToken)

	return Verdict{
		Iteration: iteration,
		Critique:  critique,
		Approved:  approved,
		Forced:    !approved && iteration >= maxIterations,
	}
}
