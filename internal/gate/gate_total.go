package gate

import (
	"github.com/codewithboateng/trendline/internal/model"
	"github.com/codewithboateng/trendline/internal/reporting"
)

func init() {
	Register(Gate{
		ID:      "TOTAL-ISSUES",
		Summary: "Total issue count crossed the configured unstable/failure thresholds.",
		Eval:    evalTotalIssues,
	})
}

func evalTotalIssues(current model.IssueContainer, _ reporting.TrendDelta) (model.Status, bool) {
	total := current.Size()
	if gsettings.TotalFailure > 0 && total >= gsettings.TotalFailure {
		return model.StatusFailure, true
	}
	if gsettings.TotalUnstable > 0 && total >= gsettings.TotalUnstable {
		return model.StatusUnstable, true
	}
	return model.StatusSuccess, false
}
