package history

import "github.com/codewithboateng/trendline/internal/model"

// Strategy selects which traversal parameters a Resolver scans with.
type Strategy int

const (
	// PreviousBuild takes the nearest qualifying previous result, whatever
	// its own verdict was.
	PreviousBuild Strategy = iota
	// StablePlugin takes the nearest previous result whose own verdict is
	// successful, trading adjacency for plugin consistency.
	StablePlugin
)

func (s Strategy) String() string {
	if s == PreviousBuild {
		return "previous-build"
	}
	return "stable-plugin"
}

// Resolver picks the reference build that trend and regression reports
// compare the baseline against. It is immutable after construction and
// answers a fixed query repeatedly.
type Resolver struct {
	History
	strategy     Strategy
	mustBeStable bool
}

// NewResolver creates a resolver for the baseline. The two flags mirror the
// host configuration: usePreviousBuild selects the PreviousBuild strategy,
// otherwise StablePlugin is used; useStableBuild restricts the scan to
// fully stable candidates in either strategy.
func NewResolver(baseline model.Build, selector model.ResultSelector, usePreviousBuild, useStableBuild bool) *Resolver {
	strategy := StablePlugin
	if usePreviousBuild {
		strategy = PreviousBuild
	}
	return &Resolver{
		History:      History{baseline: baseline, selector: selector},
		strategy:     strategy,
		mustBeStable: useStableBuild,
	}
}

// Strategy returns the strategy this resolver was constructed with.
func (r *Resolver) Strategy() Strategy { return r.strategy }

// referenceResult runs the strategy-specific scan. PreviousBuild accepts
// any qualifying result; StablePlugin additionally requires the result's
// own success flag.
func (r *Resolver) referenceResult() *model.Result {
	if r.strategy == PreviousBuild {
		return r.previousResult(false, r.mustBeStable)
	}
	return r.previousResult(true, r.mustBeStable)
}

// Reference returns the reference build, if one exists. The owning build of
// the strategy-selected result must independently pass the plain validity
// check (no stability requirement, no plugin-cause override), even when the
// scan that located it was stricter.
func (r *Resolver) Reference() (model.Build, bool) {
	result := r.referenceResult()
	if result == nil || result.Build == nil {
		return nil, false
	}
	if !hasValidResult(result.Build, false, nil) {
		return nil, false
	}
	return result.Build, true
}

// HasReference reports whether Reference returns a build.
func (r *Resolver) HasReference() bool {
	_, ok := r.Reference()
	return ok
}

// Issues returns the issues of the reference result, or an empty container
// when no reference exists. It never fails.
func (r *Resolver) Issues() model.IssueContainer {
	if result := r.referenceResult(); result != nil {
		return result.Issues
	}
	return model.NewIssueContainer()
}
