package gate

import (
	"strings"

	"github.com/codewithboateng/trendline/internal/model"
	"github.com/codewithboateng/trendline/internal/reporting"
)

func init() {
	Register(Gate{
		ID:      "NEW-HIGH-SEVERITY",
		Summary: "A new HIGH severity issue appeared; the result cannot be successful.",
		Eval:    evalNewHighSeverity,
	})
}

func evalNewHighSeverity(_ model.IssueContainer, delta reporting.TrendDelta) (model.Status, bool) {
	for _, issue := range delta.New {
		if strings.EqualFold(issue.Severity, "HIGH") {
			return model.StatusUnstable, true
		}
	}
	return model.StatusSuccess, false
}
