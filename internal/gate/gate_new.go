package gate

import (
	"github.com/codewithboateng/trendline/internal/model"
	"github.com/codewithboateng/trendline/internal/reporting"
)

func init() {
	Register(Gate{
		ID:      "NEW-ISSUES",
		Summary: "Issues not present in the reference build crossed the configured thresholds.",
		Eval:    evalNewIssues,
	})
}

func evalNewIssues(_ model.IssueContainer, delta reporting.TrendDelta) (model.Status, bool) {
	n := len(delta.New)
	if gsettings.NewFailure > 0 && n >= gsettings.NewFailure {
		return model.StatusFailure, true
	}
	if gsettings.NewUnstable > 0 && n >= gsettings.NewUnstable {
		return model.StatusUnstable, true
	}
	return model.StatusSuccess, false
}
