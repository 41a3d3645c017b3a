package ingest

import (
	"strings"
	"testing"
)

func TestParsePayload_Valid(t *testing.T) {
	in := `{
  "tool": "checkline",
  "job": "nightly",
  "build": 7,
  "status": "SUCCESS",
  "started_at": "2026-05-02T11:00:00Z",
  "issues": [
    {"severity": "high", "message": "null dereference", "file": "ledger.c", "line": 80}
  ]
}`
	p, diags, err := ParsePayload(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if len(diags.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", diags.Warnings)
	}
	if p.Tool != "checkline" || p.Job != "nightly" || p.Build != 7 {
		t.Errorf("payload = %+v", p)
	}
	if p.Issues[0].Severity != "HIGH" {
		t.Errorf("severity = %q, want normalized HIGH", p.Issues[0].Severity)
	}
}

func TestParsePayload_Fatal(t *testing.T) {
	cases := map[string]string{
		"missing tool":   `{"job":"nightly","build":1,"status":"SUCCESS"}`,
		"missing job":    `{"tool":"checkline","build":1,"status":"SUCCESS"}`,
		"bad build":      `{"tool":"checkline","job":"nightly","build":0,"status":"SUCCESS"}`,
		"unknown status": `{"tool":"checkline","job":"nightly","build":1,"status":"GREEN"}`,
		"not json":       `---`,
	}
	for name, in := range cases {
		if _, _, err := ParsePayload(strings.NewReader(in)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParsePayload_Degradations(t *testing.T) {
	in := `{
  "tool": "checkline",
  "job": "nightly",
  "build": 2,
  "status": "UNSTABLE",
  "issues": [
    {"severity": "CRITICAL", "message": "boom", "line": -4},
    {"severity": "LOW", "message": ""}
  ]
}`
	p, diags, err := ParsePayload(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if p.StartedAt.IsZero() {
		t.Error("started_at not defaulted")
	}
	if p.Issues[0].Severity != "LOW" || p.Issues[0].Line != 0 {
		t.Errorf("issue 0 = %+v", p.Issues[0])
	}
	// timestamp default, unknown severity, negative line, empty message
	if len(diags.Warnings) != 4 {
		t.Errorf("warnings = %v, want 4", diags.Warnings)
	}
}
