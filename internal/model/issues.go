package model

import (
	"fmt"
	"hash/crc32"
	"strings"
)

// Issue is a single finding an analysis tool reported for a build.
type Issue struct {
	Fingerprint string `json:"fingerprint,omitempty"`
	Category    string `json:"category,omitempty"`
	Severity    string `json:"severity"` // LOW|MEDIUM|HIGH
	Message     string `json:"message"`
	File        string `json:"file,omitempty"`
	Line        int    `json:"line,omitempty"`
}

// Key is the identity used to match an issue across builds. An explicit
// fingerprint wins; otherwise the identity is derived from the stable
// attributes.
func (i Issue) Key() string {
	if fp := strings.TrimSpace(i.Fingerprint); fp != "" {
		return fp
	}
	data := fmt.Sprintf("%s|%s|%s|%d", norm(i.Category), strings.TrimSpace(i.Message), norm(i.File), i.Line)
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(data)))
}

func norm(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// IssueContainer is an immutable collection of issues.
type IssueContainer struct {
	issues []Issue
}

// NewIssueContainer copies issues into a fresh container. With no arguments
// it is the empty container.
func NewIssueContainer(issues ...Issue) IssueContainer {
	c := IssueContainer{issues: make([]Issue, len(issues))}
	copy(c.issues, issues)
	return c
}

func (c IssueContainer) Size() int     { return len(c.issues) }
func (c IssueContainer) IsEmpty() bool { return len(c.issues) == 0 }

// Issues returns a copy of the contained issues.
func (c IssueContainer) Issues() []Issue {
	out := make([]Issue, len(c.issues))
	copy(out, c.issues)
	return out
}

// CountBySeverity returns the number of issues at the given severity
// (case-insensitive).
func (c IssueContainer) CountBySeverity(severity string) int {
	want := norm(severity)
	n := 0
	for _, i := range c.issues {
		if norm(i.Severity) == want {
			n++
		}
	}
	return n
}
