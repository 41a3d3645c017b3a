package gate

// Settings holds the gate thresholds. A zero threshold disables that check.
type Settings struct {
	TotalUnstable int
	TotalFailure  int
	NewUnstable   int
	NewFailure    int
	Disabled      map[string]bool
}

var gsettings = Settings{
	TotalUnstable: 0,
	TotalFailure:  0,
	NewUnstable:   1,
	NewFailure:    0,
	Disabled:      map[string]bool{},
}

func SetSettings(s Settings) {
	if s.Disabled == nil {
		s.Disabled = map[string]bool{}
	}
	gsettings = s
}
