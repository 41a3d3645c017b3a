package ingest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/codewithboateng/trendline/internal/gate"
	"github.com/codewithboateng/trendline/internal/health"
	"github.com/codewithboateng/trendline/internal/model"
	"github.com/codewithboateng/trendline/internal/storage"
)

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "trendline.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.CreateSchema(); err != nil {
		t.Fatalf("schema: %v", err)
	}
	gate.SetSettings(gate.Settings{NewUnstable: 1})
	t.Cleanup(func() { gate.SetSettings(gate.Settings{NewUnstable: 1}) })
	return &Pipeline{
		DB:               db,
		Health:           health.Thresholds{Healthy: 0, Unhealthy: 10},
		UsePreviousBuild: true,
	}
}

func payload(build int, status string, issues ...model.Issue) Payload {
	return Payload{
		Tool:      "checkline",
		Job:       "nightly",
		Build:     build,
		Status:    status,
		StartedAt: time.Date(2026, 5, 2, 11, 0, 0, 0, time.UTC).Add(time.Duration(build) * time.Hour),
		Issues:    issues,
	}
}

func TestPipeline_FirstBuildHasNoReference(t *testing.T) {
	p := newPipeline(t)
	out, err := p.Run(payload(1, "SUCCESS"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.HasReference {
		t.Error("first build has a reference")
	}
	if !out.Verdict.Successful() {
		t.Errorf("verdict = %+v, want SUCCESS", out.Verdict)
	}

	row, err := p.DB.LoadResult("nightly", 1, "checkline")
	if err != nil {
		t.Fatalf("load result: %v", err)
	}
	if row.PluginStatus != "SUCCESS" || !row.Successful || row.Health != 100 {
		t.Errorf("stored result = %+v", row)
	}
}

func TestPipeline_NewIssueTriggersGateAgainstReference(t *testing.T) {
	p := newPipeline(t)
	old := model.Issue{Severity: "LOW", Message: "unused variable", File: "a.c", Line: 1}

	if _, err := p.Run(payload(1, "SUCCESS", old)); err != nil {
		t.Fatalf("build 1: %v", err)
	}

	fresh := model.Issue{Severity: "HIGH", Message: "null dereference", File: "b.c", Line: 9}
	out, err := p.Run(payload(2, "SUCCESS", old, fresh))
	if err != nil {
		t.Fatalf("build 2: %v", err)
	}
	if !out.HasReference || out.ReferenceBuild != 1 {
		t.Errorf("reference = %+v, want build 1", out)
	}
	if out.Summary.NewCount != 1 || out.Summary.OutstandingCount != 1 {
		t.Errorf("summary = %+v", out.Summary)
	}
	if out.Verdict.Status != model.StatusUnstable {
		t.Errorf("verdict = %+v, want UNSTABLE", out.Verdict)
	}

	row, err := p.DB.LoadResult("nightly", 2, "checkline")
	if err != nil {
		t.Fatalf("load result: %v", err)
	}
	if row.Successful {
		t.Error("stored result marked successful despite triggered gate")
	}
}

func TestPipeline_ReferenceSkipsFailedBuildWithoutResult(t *testing.T) {
	p := newPipeline(t)
	issue := model.Issue{Severity: "LOW", Message: "unused variable", File: "a.c", Line: 1}

	if _, err := p.Run(payload(1, "SUCCESS", issue)); err != nil {
		t.Fatalf("build 1: %v", err)
	}
	// Build 2 failed outright and never delivered a payload.
	if err := p.DB.SaveBuild("nightly", 2, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
	if err := p.DB.FinishBuild("nightly", 2, model.StatusFailure); err != nil {
		t.Fatal(err)
	}

	out, err := p.Run(payload(3, "SUCCESS", issue))
	if err != nil {
		t.Fatalf("build 3: %v", err)
	}
	if !out.HasReference || out.ReferenceBuild != 1 {
		t.Errorf("reference build = %d (has=%v), want 1", out.ReferenceBuild, out.HasReference)
	}
	if out.Summary.NewCount != 0 || out.Summary.OutstandingCount != 1 {
		t.Errorf("summary = %+v, want issue outstanding vs build 1", out.Summary)
	}
}

func TestPipeline_ExclusionsSuppressIssuesBeforeGating(t *testing.T) {
	p := newPipeline(t)
	if _, err := p.DB.CreateExclusion("checkline", "style", "", "grace period", "amara",
		time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	styled := model.Issue{Category: "style", Severity: "LOW", Message: "brace placement"}
	out, err := p.Run(payload(1, "SUCCESS", styled))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Excluded != 1 {
		t.Errorf("excluded = %d, want 1", out.Excluded)
	}
	if !out.Verdict.Successful() {
		t.Errorf("verdict = %+v, want SUCCESS (issue excluded)", out.Verdict)
	}
	row, err := p.DB.LoadResult("nightly", 1, "checkline")
	if err != nil {
		t.Fatal(err)
	}
	if len(row.Issues) != 0 {
		t.Errorf("stored issues = %+v, want none", row.Issues)
	}
}
