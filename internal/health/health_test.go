package health

import "testing"

func TestScore(t *testing.T) {
	th := Thresholds{Healthy: 10, Unhealthy: 20}
	cases := []struct {
		count int
		want  int
	}{
		{0, 100},
		{10, 100},
		{15, 50},
		{19, 10},
		{20, 0},
		{35, 0},
	}
	for _, c := range cases {
		if got := Score(th, c.count); got != c.want {
			t.Errorf("Score(%d) = %d, want %d", c.count, got, c.want)
		}
	}
}

func TestScore_DisabledThresholds(t *testing.T) {
	for _, th := range []Thresholds{{}, {Healthy: 20, Unhealthy: 10}, {Healthy: 5, Unhealthy: 5}} {
		if got := Score(th, 1000); got != 100 {
			t.Errorf("Score with %+v = %d, want 100 (disabled)", th, got)
		}
	}
}
