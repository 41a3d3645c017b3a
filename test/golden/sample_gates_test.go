package golden

import (
	"fmt"
	"testing"

	"github.com/codewithboateng/trendline/internal/gate"
	"github.com/codewithboateng/trendline/internal/model"
)

func TestSample_NewHighSeverity_TriggersBothGates(t *testing.T) {
	p := newPipeline(t)

	if _, err := p.Run(payload(1, "SUCCESS")); err != nil {
		t.Fatalf("run build 1: %v", err)
	}
	out, err := p.Run(payload(2, "SUCCESS",
		issue("sql-inject", "HIGH", "query built from user input")))
	if err != nil {
		t.Fatalf("run build 2: %v", err)
	}

	if out.Verdict.Status != model.StatusUnstable {
		t.Fatalf("status = %s, want UNSTABLE", out.Verdict.Status)
	}
	required := []string{"NEW-HIGH-SEVERITY", "NEW-ISSUES"}
	triggered := map[string]bool{}
	for _, id := range out.Verdict.Triggered {
		triggered[id] = true
	}
	for _, id := range required {
		if !triggered[id] {
			t.Fatalf("expected gate %s to trigger; triggered=%v", id, out.Verdict.Triggered)
		}
	}
}

func TestSample_DisabledGates_ReportSuccess(t *testing.T) {
	p := newPipeline(t)
	gate.SetSettings(gate.Settings{
		NewUnstable: 1,
		Disabled:    map[string]bool{"NEW-HIGH-SEVERITY": true, "NEW-ISSUES": true},
	})

	if _, err := p.Run(payload(1, "SUCCESS")); err != nil {
		t.Fatalf("run build 1: %v", err)
	}
	out, err := p.Run(payload(2, "SUCCESS",
		issue("sql-inject", "HIGH", "query built from user input")))
	if err != nil {
		t.Fatalf("run build 2: %v", err)
	}

	if !out.Verdict.Successful() {
		t.Fatalf("verdict = %+v, want SUCCESS with gates disabled", out.Verdict)
	}
}

func TestSample_TotalFailureThreshold(t *testing.T) {
	p := newPipeline(t)

	var issues []model.Issue
	for i := 0; i < 8; i++ {
		issues = append(issues, issue(fmt.Sprintf("fp-%d", i), "LOW", "magic number"))
	}
	out, err := p.Run(payload(1, "SUCCESS", issues...))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if out.Verdict.Status != model.StatusFailure {
		t.Fatalf("status = %s, want FAILURE", out.Verdict.Status)
	}
	if len(out.Verdict.Triggered) != 1 || out.Verdict.Triggered[0] != "TOTAL-ISSUES" {
		t.Fatalf("triggered = %v, want [TOTAL-ISSUES]", out.Verdict.Triggered)
	}
}
