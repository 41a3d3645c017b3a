// Package model holds the build/result data model shared by the history
// core and the host-side collaborators. The chain of builds is owned by the
// host (storage, CI server, test fake); this package only describes the
// capabilities the core reads.
package model

import "time"

// Build is one record in a job's backward-linked build chain.
//
// The chain is finite and acyclic: Previous eventually returns nil at the
// oldest build. A build that has not finished yet reports ok=false from
// Status and is never eligible for history selection.
type Build interface {
	// Job is the name of the job this build belongs to.
	Job() string
	// Number is the build number, unique and increasing within a job.
	Number() int
	// Previous returns the immediately preceding build, or nil if this is
	// the oldest build on record.
	Previous() Build
	// Status returns the terminal status. ok is false while the build is
	// still running.
	Status() (Status, bool)
	// StartedAt is the time the build started.
	StartedAt() time.Time
}

// Result is the analysis outcome a tool attached to a build.
type Result struct {
	// Tool identifies the analysis tool that produced this result.
	Tool string
	// Build is the owning build.
	Build Build
	// PluginStatus is the tool's own verdict for this build. It may be
	// worse than the build's overall status when a quality gate failed,
	// or better when unrelated build steps broke.
	PluginStatus Status
	// Successful reports whether the tool considers this result a success.
	Successful bool
	// Health is the derived health score, 0..100.
	Health int
	// Issues are the findings of this result.
	Issues IssueContainer
}

// ResultSelector extracts the result a particular tool attached to a build,
// or nil if the build carries none. Different tools attach different results
// to the same chain, so the selector is supplied per query.
type ResultSelector interface {
	Select(b Build) *Result
}

// SelectorFunc adapts a plain function to a ResultSelector.
type SelectorFunc func(Build) *Result

func (f SelectorFunc) Select(b Build) *Result { return f(b) }
