package history

import (
	"testing"

	"github.com/codewithboateng/trendline/internal/model"
)

func TestNewResolver_StrategySelection(t *testing.T) {
	baseline := &fakeBuild{number: 1, status: model.StatusSuccess}
	sel := selector(nil)

	if got := NewResolver(baseline, sel, true, false).Strategy(); got != PreviousBuild {
		t.Errorf("usePreviousBuild=true: strategy = %v, want previous-build", got)
	}
	if got := NewResolver(baseline, sel, false, false).Strategy(); got != StablePlugin {
		t.Errorf("usePreviousBuild=false: strategy = %v, want stable-plugin", got)
	}
}

func TestResolver_PreviousBuildStrategy(t *testing.T) {
	b1 := &fakeBuild{number: 1, status: model.StatusSuccess}
	b2 := &fakeBuild{number: 2, status: model.StatusUnstable}
	b3 := &fakeBuild{number: 3, status: model.StatusSuccess}
	baseline := chain(b1, b2, b3)

	// b2's result is not successful; the previous-build strategy takes it
	// anyway, the stable-plugin strategy walks past it to b1.
	r1 := result(b1, model.StatusSuccess, true)
	r2 := result(b2, model.StatusUnstable, false)
	sel := selector(map[int]*model.Result{1: r1, 2: r2})

	prev := NewResolver(baseline, sel, true, false)
	if ref, ok := prev.Reference(); !ok || ref.Number() != 2 {
		t.Errorf("previous-build reference = %v, %v; want build 2", ref, ok)
	}

	stable := NewResolver(baseline, sel, false, false)
	if ref, ok := stable.Reference(); !ok || ref.Number() != 1 {
		t.Errorf("stable-plugin reference = %v, %v; want build 1", ref, ok)
	}
}

func TestResolver_StableFlagRestrictsScan(t *testing.T) {
	b1 := &fakeBuild{number: 1, status: model.StatusSuccess}
	b2 := &fakeBuild{number: 2, status: model.StatusUnstable}
	b3 := &fakeBuild{number: 3, status: model.StatusSuccess}
	baseline := chain(b1, b2, b3)

	r1 := result(b1, model.StatusSuccess, true)
	r2 := result(b2, model.StatusUnstable, true)
	sel := selector(map[int]*model.Result{1: r1, 2: r2})

	r := NewResolver(baseline, sel, true, true)
	ref, ok := r.Reference()
	if !ok || ref.Number() != 1 {
		t.Errorf("reference = %v, %v; want build 1 (unstable build skipped)", ref, ok)
	}
}

func TestResolver_ReferenceIndependentValidity(t *testing.T) {
	// The scan accepts b2 through the plugin-cause override, but the
	// reference re-check is ungated and rejects an overall-failed build.
	b1 := &fakeBuild{number: 1, status: model.StatusSuccess}
	b2 := &fakeBuild{number: 2, status: model.StatusFailure}
	b3 := &fakeBuild{number: 3, status: model.StatusSuccess}
	baseline := chain(b1, b2, b3)

	r1 := result(b1, model.StatusSuccess, true)
	r2 := result(b2, model.StatusFailure, false)
	sel := selector(map[int]*model.Result{1: r1, 2: r2})

	r := NewResolver(baseline, sel, true, false)
	if ref, ok := r.Reference(); ok {
		t.Errorf("Reference = build %d, want none (owning build failed overall)", ref.Number())
	}
	if r.HasReference() {
		t.Error("HasReference = true, want false")
	}
	// Issues still come from the scan result; the fallback only applies
	// when the scan finds nothing.
	if got := r.Issues(); got.Size() != 0 {
		t.Errorf("Issues size = %d, want 0", got.Size())
	}
}

func TestResolver_IssuesFallbackIsEmptyContainer(t *testing.T) {
	baseline := &fakeBuild{number: 1, status: model.StatusSuccess}
	r := NewResolver(baseline, selector(nil), true, false)

	issues := r.Issues()
	if !issues.IsEmpty() {
		t.Errorf("Issues size = %d, want empty container", issues.Size())
	}
	if issues.Issues() == nil {
		t.Error("Issues() slice is nil, want empty non-nil")
	}
}

func TestResolver_IssuesFromReference(t *testing.T) {
	b1 := &fakeBuild{number: 1, status: model.StatusSuccess}
	b2 := &fakeBuild{number: 2, status: model.StatusSuccess}
	baseline := chain(b1, b2)

	issue := model.Issue{Severity: "HIGH", Message: "unchecked return value", File: "payroll.c", Line: 12}
	r1 := result(b1, model.StatusSuccess, true, issue)
	sel := selector(map[int]*model.Result{1: r1})

	r := NewResolver(baseline, sel, true, false)
	got := r.Issues()
	if got.Size() != 1 {
		t.Fatalf("Issues size = %d, want 1", got.Size())
	}
	if got.Issues()[0].Message != issue.Message {
		t.Errorf("issue = %+v, want %+v", got.Issues()[0], issue)
	}
}
