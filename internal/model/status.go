package model

import "strings"

// Status is the terminal outcome of a build, ordered from best to worst.
// A build that is still running has no Status at all.
type Status int

const (
	StatusSuccess Status = iota
	StatusUnstable
	StatusFailure
	StatusAborted
	StatusNotBuilt
)

var statusNames = [...]string{"SUCCESS", "UNSTABLE", "FAILURE", "ABORTED", "NOT_BUILT"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "UNKNOWN"
	}
	return statusNames[s]
}

// ParseStatus maps the wire spelling to a Status. ok is false for an
// unknown spelling.
func ParseStatus(v string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "SUCCESS":
		return StatusSuccess, true
	case "UNSTABLE":
		return StatusUnstable, true
	case "FAILURE":
		return StatusFailure, true
	case "ABORTED":
		return StatusAborted, true
	case "NOT_BUILT":
		return StatusNotBuilt, true
	}
	return StatusNotBuilt, false
}

// IsBetterThan reports whether s is a strictly better outcome than o.
func (s Status) IsBetterThan(o Status) bool { return s < o }

// IsWorseOrEqualTo reports whether s is at least as bad an outcome as o.
func (s Status) IsWorseOrEqualTo(o Status) bool { return s >= o }
