package ingest

import (
	"fmt"
	"log/slog"

	"github.com/codewithboateng/trendline/internal/gate"
	"github.com/codewithboateng/trendline/internal/health"
	"github.com/codewithboateng/trendline/internal/history"
	"github.com/codewithboateng/trendline/internal/model"
	"github.com/codewithboateng/trendline/internal/reporting"
	"github.com/codewithboateng/trendline/internal/storage"
)

// Pipeline persists a payload, resolves its reference and derives the
// plugin verdict. One pipeline serves many payloads.
type Pipeline struct {
	DB               *storage.DB
	Health           health.Thresholds
	UsePreviousBuild bool
	UseStableBuild   bool
}

// Outcome summarizes what one ingested payload produced.
type Outcome struct {
	Job            string                 `json:"job"`
	Build          int                    `json:"build"`
	Tool           string                 `json:"tool"`
	Verdict        gate.Verdict           `json:"verdict"`
	Health         int                    `json:"health"`
	HasReference   bool                   `json:"has_reference"`
	ReferenceBuild int                    `json:"reference_build,omitempty"`
	Excluded       int                    `json:"excluded"`
	Delta          reporting.TrendDelta   `json:"delta"`
	Summary        reporting.TrendSummary `json:"summary"`
}

// Run stores the payload's build, compares it against the reference picked
// by the configured strategy, evaluates the quality gates and persists the
// final result.
func (p *Pipeline) Run(payload Payload) (*Outcome, error) {
	status, ok := model.ParseStatus(payload.Status)
	if !ok {
		return nil, fmt.Errorf("ingest: unknown status %q", payload.Status)
	}

	if err := p.DB.SaveBuild(payload.Job, payload.Build, payload.StartedAt); err != nil {
		return nil, fmt.Errorf("ingest: save build: %w", err)
	}
	if err := p.DB.FinishBuild(payload.Job, payload.Build, status); err != nil {
		return nil, fmt.Errorf("ingest: finish build: %w", err)
	}

	exclusions, err := p.DB.ListExclusions(true)
	if err != nil {
		return nil, fmt.Errorf("ingest: load exclusions: %w", err)
	}
	kept := storage.ApplyExclusions(payload.Tool, payload.Issues, exclusions)
	excluded := len(payload.Issues) - len(kept)
	if excluded > 0 {
		slog.Info("issues excluded", "job", payload.Job, "build", payload.Build, "excluded", excluded)
	}
	current := model.NewIssueContainer(kept...)

	chain, err := p.DB.Chain()
	if err != nil {
		return nil, err
	}
	baseline, err := chain.Build(payload.Job, payload.Build)
	if err != nil {
		return nil, fmt.Errorf("ingest: load baseline: %w", err)
	}

	resolver := history.NewResolver(baseline, chain.Selector(payload.Tool), p.UsePreviousBuild, p.UseStableBuild)
	reference, hasReference := resolver.Reference()

	// Without a reference there is nothing to regress against; the issues
	// form the outstanding baseline instead of counting as new.
	delta := reporting.BaselineDelta(current)
	if hasReference {
		delta = reporting.Delta(resolver.Issues(), current)
	}

	verdict := gate.Evaluate(current, delta)
	score := health.Score(p.Health, current.Size())

	row := &storage.ResultRow{
		Job:          payload.Job,
		Number:       payload.Build,
		Tool:         payload.Tool,
		PluginStatus: verdict.Status.String(),
		Successful:   verdict.Successful(),
		Health:       score,
		Issues:       current.Issues(),
	}
	if err := p.DB.SaveResult(row); err != nil {
		return nil, fmt.Errorf("ingest: save result: %w", err)
	}

	out := &Outcome{
		Job:      payload.Job,
		Build:    payload.Build,
		Tool:     payload.Tool,
		Verdict:  verdict,
		Health:   score,
		Excluded: excluded,
		Delta:    delta,
		Summary:  delta.Summary(),
	}
	if hasReference {
		out.HasReference = true
		out.ReferenceBuild = reference.Number()
	}
	return out, nil
}
