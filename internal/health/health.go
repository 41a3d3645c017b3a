// Package health maps an issue count to a 0..100 health score.
package health

// Thresholds configures the score interpolation: at most Healthy issues is
// 100, at least Unhealthy issues is 0, linear in between. The pair is only
// meaningful when Healthy < Unhealthy.
type Thresholds struct {
	Healthy   int
	Unhealthy int
}

// Enabled reports whether the thresholds describe a usable range.
func (t Thresholds) Enabled() bool {
	return t.Healthy >= 0 && t.Unhealthy > t.Healthy
}

// Score computes the health score for an issue count. Disabled thresholds
// always score 100.
func Score(t Thresholds, issueCount int) int {
	if !t.Enabled() {
		return 100
	}
	if issueCount <= t.Healthy {
		return 100
	}
	if issueCount >= t.Unhealthy {
		return 0
	}
	span := t.Unhealthy - t.Healthy
	return 100 * (t.Unhealthy - issueCount) / span
}
