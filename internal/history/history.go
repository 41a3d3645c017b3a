// Package history implements the selection core for trend reporting: given
// a baseline build it resolves the previous qualifying analysis result and
// the reference result the current findings are compared against.
//
// Everything here is a pure in-memory walk over the externally owned build
// chain. No I/O, no mutation, no shared state: construct one History or
// Resolver per reporting request and discard it afterwards.
package history

import (
	"errors"
	"time"

	"github.com/codewithboateng/trendline/internal/model"
)

// ErrNoPreviousResult is returned by PreviousResult when no qualifying
// previous result exists. Callers are expected to check HasPreviousResult
// first; hitting this error is a contract violation, not a normal outcome.
var ErrNoPreviousResult = errors.New("no previous result available")

// History provides access to the previous analysis results of a baseline
// build. Results are picked from the predecessor chain by the selector.
type History struct {
	baseline model.Build
	selector model.ResultSelector
}

// NewHistory creates a history starting at baseline. The traversal is
// exclusive: the baseline itself is never a candidate.
func NewHistory(baseline model.Build, selector model.ResultSelector) *History {
	return &History{baseline: baseline, selector: selector}
}

// Timestamp returns the start time of the baseline build.
func (h *History) Timestamp() time.Time { return h.baseline.StartedAt() }

// Baseline returns the result attached to the baseline build itself, or nil
// if the tool has not attached one.
func (h *History) Baseline() *model.Result { return h.selector.Select(h.baseline) }

// HasPreviousResult reports whether a qualifying previous result exists.
func (h *History) HasPreviousResult() bool {
	return h.previousResult(false, false) != nil
}

// IsEmpty is the negation of HasPreviousResult.
func (h *History) IsEmpty() bool { return !h.HasPreviousResult() }

// PreviousResult returns the result of the nearest qualifying previous
// build. It fails with ErrNoPreviousResult when the chain holds none.
func (h *History) PreviousResult() (*model.Result, error) {
	if r := h.previousResult(false, false); r != nil {
		return r, nil
	}
	return nil, ErrNoPreviousResult
}

// previousResult walks the chain strictly backwards from the baseline's
// predecessor and returns the first result whose build qualifies, or nil if
// the chain is exhausted. First match wins: the most recent qualifying
// build is the answer.
//
// statusRelevant additionally requires the result's own success flag;
// mustBeStable restricts candidates to fully stable builds.
func (h *History) previousResult(statusRelevant, mustBeStable bool) *model.Result {
	for b := h.baseline.Previous(); b != nil; b = b.Previous() {
		result := h.selector.Select(b)
		if hasValidResult(b, mustBeStable, result) && isSuccessful(result, statusRelevant) {
			return result
		}
	}
	return nil
}

// hasValidResult reports whether a candidate build completed with an
// acceptable overall outcome. A build without a terminal status never
// qualifies. When mustBeStable is set only SUCCESS passes. Otherwise any
// status better than FAILURE passes, or a failed build whose attached
// result blames the analysis tool itself (the failure is then not caused by
// unrelated build steps, so the result is still comparable).
func hasValidResult(b model.Build, mustBeStable bool, result *model.Result) bool {
	status, ok := b.Status()
	if !ok {
		return false
	}
	if mustBeStable {
		return status == model.StatusSuccess
	}
	return status.IsBetterThan(model.StatusFailure) || isPluginCauseForFailure(result)
}

func isPluginCauseForFailure(result *model.Result) bool {
	if result == nil {
		return false
	}
	return result.PluginStatus.IsWorseOrEqualTo(model.StatusFailure)
}

func isSuccessful(result *model.Result, statusRelevant bool) bool {
	return result != nil && (result.Successful || !statusRelevant)
}
