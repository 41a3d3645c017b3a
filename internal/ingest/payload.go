// Package ingest accepts analysis result payloads from CI and turns them
// into persisted, gated, health-scored results.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/codewithboateng/trendline/internal/model"
)

// Payload is the wire format a CI job pushes after running an analysis tool.
type Payload struct {
	Tool      string        `json:"tool"`
	Job       string        `json:"job"`
	Build     int           `json:"build"`
	Status    string        `json:"status"` // overall build status
	StartedAt time.Time     `json:"started_at"`
	Issues    []model.Issue `json:"issues"`
}

// Diags collects non-fatal problems found while decoding a payload.
type Diags struct {
	Warnings []string
}

func (d *Diags) warnf(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

var validSeverities = map[string]bool{"LOW": true, "MEDIUM": true, "HIGH": true}

// ParsePayload decodes and validates a result payload. Unknown severities
// and missing timestamps degrade to defaults with a warning; a missing
// tool/job/build or an unknown status is fatal.
func ParsePayload(r io.Reader) (Payload, Diags, error) {
	var p Payload
	var diags Diags

	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return Payload{}, diags, fmt.Errorf("decode payload: %w", err)
	}

	p.Tool = strings.TrimSpace(p.Tool)
	p.Job = strings.TrimSpace(p.Job)
	if p.Tool == "" {
		return Payload{}, diags, errors.New("payload: tool is required")
	}
	if p.Job == "" {
		return Payload{}, diags, errors.New("payload: job is required")
	}
	if p.Build <= 0 {
		return Payload{}, diags, fmt.Errorf("payload: build %d is not a valid build number", p.Build)
	}
	if _, ok := model.ParseStatus(p.Status); !ok {
		return Payload{}, diags, fmt.Errorf("payload: unknown status %q", p.Status)
	}
	if p.StartedAt.IsZero() {
		diags.warnf("started_at missing for %s #%d; using current time", p.Job, p.Build)
		p.StartedAt = time.Now().UTC()
	}

	for i := range p.Issues {
		issue := &p.Issues[i]
		issue.Severity = strings.ToUpper(strings.TrimSpace(issue.Severity))
		if !validSeverities[issue.Severity] {
			if issue.Severity != "" {
				diags.warnf("issue %d: unknown severity %q mapped to LOW", i, issue.Severity)
			}
			issue.Severity = "LOW"
		}
		if strings.TrimSpace(issue.Message) == "" {
			diags.warnf("issue %d: empty message", i)
		}
		if issue.Line < 0 {
			diags.warnf("issue %d: negative line %d cleared", i, issue.Line)
			issue.Line = 0
		}
	}
	return p, diags, nil
}
