package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/codewithboateng/trendline/internal/model"
)

// TrendDelta is the issue movement between the reference result and the
// current one. Identity is the issue Key (explicit fingerprint or derived).
type TrendDelta struct {
	New         []model.Issue `json:"new"`
	Fixed       []model.Issue `json:"fixed"`
	Outstanding []model.Issue `json:"outstanding"`
}

// Summary returns the counts of the delta.
func (d TrendDelta) Summary() TrendSummary {
	return TrendSummary{
		NewCount:         len(d.New),
		FixedCount:       len(d.Fixed),
		OutstandingCount: len(d.Outstanding),
	}
}

type TrendSummary struct {
	NewCount         int `json:"new"`
	FixedCount       int `json:"fixed"`
	OutstandingCount int `json:"outstanding"`
}

// Delta computes new/fixed/outstanding issues of current against reference.
func Delta(reference, current model.IssueContainer) TrendDelta {
	refKeys := map[string]struct{}{}
	for _, issue := range reference.Issues() {
		refKeys[issue.Key()] = struct{}{}
	}
	curKeys := map[string]struct{}{}

	var d TrendDelta
	for _, issue := range current.Issues() {
		key := issue.Key()
		curKeys[key] = struct{}{}
		if _, ok := refKeys[key]; ok {
			d.Outstanding = append(d.Outstanding, issue)
		} else {
			d.New = append(d.New, issue)
		}
	}
	for _, issue := range reference.Issues() {
		if _, ok := curKeys[issue.Key()]; !ok {
			d.Fixed = append(d.Fixed, issue)
		}
	}

	// stable sort for reproducible reports
	sortIssues(d.New)
	sortIssues(d.Fixed)
	sortIssues(d.Outstanding)
	return d
}

// BaselineDelta classifies every current issue as outstanding. It is the
// delta of a build with no reference: nothing to compare against means
// nothing is new and nothing is fixed.
func BaselineDelta(current model.IssueContainer) TrendDelta {
	d := TrendDelta{Outstanding: current.Issues()}
	sortIssues(d.Outstanding)
	return d
}

func sortIssues(issues []model.Issue) {
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].File != issues[j].File {
			return issues[i].File < issues[j].File
		}
		if issues[i].Line != issues[j].Line {
			return issues[i].Line < issues[j].Line
		}
		return issues[i].Key() < issues[j].Key()
	})
}

type trendPayload struct {
	Job             string       `json:"job"`
	Build           int          `json:"build"`
	Tool            string       `json:"tool"`
	ReferenceBuild  int          `json:"reference_build,omitempty"`
	HasReference    bool         `json:"has_reference"`
	Summary         TrendSummary `json:"summary"`
	TrendDelta
}

// WriteTrendJSON writes the trend report of one build to outDir.
// referenceBuild is 0 when no reference exists.
func WriteTrendJSON(job string, build int, tool string, referenceBuild int, outDir string, d TrendDelta) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, trendFileName(job, build, "json"))
	payload := trendPayload{
		Job:            job,
		Build:          build,
		Tool:           tool,
		ReferenceBuild: referenceBuild,
		HasReference:   referenceBuild > 0,
		Summary:        d.Summary(),
		TrendDelta:     d,
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b, 0o644)
}
