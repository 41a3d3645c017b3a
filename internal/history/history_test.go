package history

import (
	"errors"
	"testing"
	"time"

	"github.com/codewithboateng/trendline/internal/model"
)

// fakeBuild is an in-memory chain link for tests.
type fakeBuild struct {
	number  int
	status  model.Status
	running bool
	started time.Time
	prev    *fakeBuild
}

func (b *fakeBuild) Job() string    { return "demo" }
func (b *fakeBuild) Number() int    { return b.number }
func (b *fakeBuild) Previous() model.Build {
	if b.prev == nil {
		return nil
	}
	return b.prev
}
func (b *fakeBuild) Status() (model.Status, bool) {
	if b.running {
		return 0, false
	}
	return b.status, true
}
func (b *fakeBuild) StartedAt() time.Time { return b.started }

// chain links builds oldest-first and returns the newest as baseline.
func chain(builds ...*fakeBuild) *fakeBuild {
	for i := 1; i < len(builds); i++ {
		builds[i].prev = builds[i-1]
	}
	return builds[len(builds)-1]
}

func selector(results map[int]*model.Result) model.ResultSelector {
	return model.SelectorFunc(func(b model.Build) *model.Result {
		return results[b.Number()]
	})
}

func result(b *fakeBuild, pluginStatus model.Status, successful bool, issues ...model.Issue) *model.Result {
	return &model.Result{
		Tool:         "demo-tool",
		Build:        b,
		PluginStatus: pluginStatus,
		Successful:   successful,
		Issues:       model.NewIssueContainer(issues...),
	}
}

func TestPreviousResult_SkipsFailureWithoutResult(t *testing.T) {
	// Scenario A: B3 failed with no attached result, so B2's result wins.
	b1 := &fakeBuild{number: 1, status: model.StatusSuccess}
	b2 := &fakeBuild{number: 2, status: model.StatusSuccess}
	b3 := &fakeBuild{number: 3, status: model.StatusFailure}
	b4 := &fakeBuild{number: 4, status: model.StatusSuccess}
	baseline := chain(b1, b2, b3, b4)

	r1 := result(b1, model.StatusSuccess, true)
	r2 := result(b2, model.StatusSuccess, true)
	h := NewHistory(baseline, selector(map[int]*model.Result{1: r1, 2: r2}))

	if !h.HasPreviousResult() {
		t.Fatal("expected a previous result")
	}
	got, err := h.PreviousResult()
	if err != nil {
		t.Fatalf("PreviousResult: %v", err)
	}
	if got != r2 {
		t.Errorf("got result of build %d, want build 2", got.Build.Number())
	}
}

func TestPreviousResult_PluginCauseOverride(t *testing.T) {
	// Scenario B: B3 failed, but its result blames the tool itself.
	b2 := &fakeBuild{number: 2, status: model.StatusSuccess}
	b3 := &fakeBuild{number: 3, status: model.StatusFailure}
	b4 := &fakeBuild{number: 4, status: model.StatusSuccess}
	baseline := chain(b2, b3, b4)

	r2 := result(b2, model.StatusSuccess, true)
	r3 := result(b3, model.StatusFailure, false)
	h := NewHistory(baseline, selector(map[int]*model.Result{2: r2, 3: r3}))

	got, err := h.PreviousResult()
	if err != nil {
		t.Fatalf("PreviousResult: %v", err)
	}
	if got != r3 {
		t.Errorf("got result of build %d, want build 3 (override applies)", got.Build.Number())
	}
}

func TestPreviousResult_StableScanSkipsUnstable(t *testing.T) {
	// Scenario C: with mustBeStable the UNSTABLE build is skipped.
	b2 := &fakeBuild{number: 2, status: model.StatusSuccess}
	b3 := &fakeBuild{number: 3, status: model.StatusUnstable}
	b4 := &fakeBuild{number: 4, status: model.StatusSuccess}
	baseline := chain(b2, b3, b4)

	r2 := result(b2, model.StatusSuccess, true)
	r3 := result(b3, model.StatusUnstable, true)
	h := NewHistory(baseline, selector(map[int]*model.Result{2: r2, 3: r3}))

	if got := h.previousResult(false, true); got != r2 {
		t.Errorf("stable scan picked build %d, want build 2", got.Build.Number())
	}
	// The plain scan still prefers the nearer build.
	if got := h.previousResult(false, false); got != r3 {
		t.Errorf("plain scan picked build %d, want build 3", got.Build.Number())
	}
}

func TestPreviousResult_EmptyChain(t *testing.T) {
	// Scenario D: baseline has no predecessor.
	baseline := &fakeBuild{number: 1, status: model.StatusSuccess}
	h := NewHistory(baseline, selector(nil))

	if h.HasPreviousResult() {
		t.Error("HasPreviousResult = true on empty chain")
	}
	if !h.IsEmpty() {
		t.Error("IsEmpty = false on empty chain")
	}
	if _, err := h.PreviousResult(); !errors.Is(err, ErrNoPreviousResult) {
		t.Errorf("PreviousResult error = %v, want ErrNoPreviousResult", err)
	}
}

func TestPreviousResult_FirstMatchWins(t *testing.T) {
	b1 := &fakeBuild{number: 1, status: model.StatusSuccess}
	b2 := &fakeBuild{number: 2, status: model.StatusUnstable}
	b3 := &fakeBuild{number: 3, status: model.StatusSuccess}
	baseline := chain(b1, b2, b3)

	r1 := result(b1, model.StatusSuccess, true)
	r2 := result(b2, model.StatusUnstable, true)
	h := NewHistory(baseline, selector(map[int]*model.Result{1: r1, 2: r2}))

	got, err := h.PreviousResult()
	if err != nil {
		t.Fatalf("PreviousResult: %v", err)
	}
	if got != r2 {
		t.Errorf("got result of build %d, want nearest qualifying build 2", got.Build.Number())
	}
}

func TestPreviousResult_RunningBuildNeverQualifies(t *testing.T) {
	b1 := &fakeBuild{number: 1, status: model.StatusSuccess}
	b2 := &fakeBuild{number: 2, running: true}
	b3 := &fakeBuild{number: 3, status: model.StatusSuccess}
	baseline := chain(b1, b2, b3)

	r1 := result(b1, model.StatusSuccess, true)
	r2 := result(b2, model.StatusSuccess, true) // attached while still running
	h := NewHistory(baseline, selector(map[int]*model.Result{1: r1, 2: r2}))

	got, err := h.PreviousResult()
	if err != nil {
		t.Fatalf("PreviousResult: %v", err)
	}
	if got != r1 {
		t.Errorf("got result of build %d, want build 1 (running build skipped)", got.Build.Number())
	}
}

func TestPreviousResult_Deterministic(t *testing.T) {
	b1 := &fakeBuild{number: 1, status: model.StatusSuccess}
	b2 := &fakeBuild{number: 2, status: model.StatusSuccess}
	baseline := chain(b1, b2)

	r1 := result(b1, model.StatusSuccess, true)
	h := NewHistory(baseline, selector(map[int]*model.Result{1: r1}))

	first, err := h.PreviousResult()
	if err != nil {
		t.Fatalf("PreviousResult: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := h.PreviousResult()
		if err != nil || again != first {
			t.Fatalf("call %d: got (%v, %v), want (%v, nil)", i, again, err, first)
		}
	}
}

func TestBaselineAndTimestamp(t *testing.T) {
	started := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	baseline := &fakeBuild{number: 7, status: model.StatusSuccess, started: started}
	r7 := result(baseline, model.StatusSuccess, true)
	h := NewHistory(baseline, selector(map[int]*model.Result{7: r7}))

	if got := h.Baseline(); got != r7 {
		t.Errorf("Baseline = %v, want the baseline's own result", got)
	}
	if got := h.Timestamp(); !got.Equal(started) {
		t.Errorf("Timestamp = %v, want %v", got, started)
	}
}
