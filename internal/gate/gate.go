// Package gate decides the plugin-specific verdict of a fresh analysis
// result from its issue counts and its trend deltas against the reference.
package gate

import (
	"sort"
	"strings"

	"github.com/codewithboateng/trendline/internal/model"
	"github.com/codewithboateng/trendline/internal/reporting"
)

// Gate is a single quality gate evaluated over a fresh result.
type Gate struct {
	ID      string
	Summary string
	// Eval returns the verdict this gate demands and whether it triggered.
	Eval func(current model.IssueContainer, delta reporting.TrendDelta) (model.Status, bool)
}

var (
	registry  []Gate
	gateIndex = map[string]int{} // UPPER(gateID) -> index
)

func Register(g Gate) {
	registry = append(registry, g)
	gateIndex[strings.ToUpper(strings.TrimSpace(g.ID))] = len(registry) - 1
}

// List returns the enabled gates in stable order.
func List() []Gate {
	out := make([]Gate, 0, len(registry))
	for _, g := range registry {
		if gsettings.Disabled[strings.ToUpper(g.ID)] {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a gate by ID if registered.
func Get(id string) (Gate, bool) {
	idx, ok := gateIndex[strings.ToUpper(strings.TrimSpace(id))]
	if !ok || idx < 0 || idx >= len(registry) {
		return Gate{}, false
	}
	return registry[idx], true
}

// Verdict is the outcome of evaluating all enabled gates.
type Verdict struct {
	Status    model.Status `json:"status"`
	Triggered []string     `json:"triggered,omitempty"` // gate IDs, stable order
}

// Successful reports whether no gate demanded a worse-than-success verdict.
func (v Verdict) Successful() bool { return v.Status == model.StatusSuccess }

// Evaluate runs the enabled gates and returns the worst demanded status.
// With no triggered gate the verdict is SUCCESS.
func Evaluate(current model.IssueContainer, delta reporting.TrendDelta) Verdict {
	v := Verdict{Status: model.StatusSuccess}
	for _, g := range List() {
		status, triggered := g.Eval(current, delta)
		if !triggered {
			continue
		}
		v.Triggered = append(v.Triggered, g.ID)
		if status.IsWorseOrEqualTo(v.Status) {
			v.Status = status
		}
	}
	return v
}
