package storage

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codewithboateng/trendline/internal/model"
)

// Exclusion suppresses matching issues before gating and trend counting.
// Empty fields match anything.
type Exclusion struct {
	ID         string     `json:"id"`
	Tool       string     `json:"tool,omitempty"`
	Category   string     `json:"category,omitempty"`
	PatternSub string     `json:"pattern_sub,omitempty"`
	Reason     string     `json:"reason"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// Matches reports whether an issue of the given tool is suppressed.
func (e Exclusion) Matches(tool string, issue model.Issue) bool {
	if e.Tool != "" && !strings.EqualFold(e.Tool, tool) {
		return false
	}
	if e.Category != "" && !strings.EqualFold(e.Category, issue.Category) {
		return false
	}
	if e.PatternSub != "" {
		sub := strings.ToUpper(e.PatternSub)
		if !strings.Contains(strings.ToUpper(issue.Message), sub) &&
			!strings.Contains(strings.ToUpper(issue.File), sub) {
			return false
		}
	}
	return true
}

func (db *DB) CreateExclusion(tool, category, pattern, reason, createdBy string, expires time.Time) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := db.conn.Exec(`
INSERT INTO exclusions(id, tool, category, pattern_sub, reason, expires_at, created_by, created_at)
VALUES(?,?,?,?,?,?,?,?)`,
		id, nz(tool), nz(category), nz(pattern), reason, expires.UTC().Format(time.RFC3339Nano), createdBy, now)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (db *DB) RevokeExclusion(id string, by string) error {
	// the revoker lands in the audit log; exclusions only carry revoked_at
	return execOne(db.conn, `UPDATE exclusions SET revoked_at=? WHERE id=? AND revoked_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339Nano), id)
}

func (db *DB) ListExclusions(activeOnly bool) ([]Exclusion, error) {
	q := `
SELECT id, COALESCE(tool,''), COALESCE(category,''), COALESCE(pattern_sub,''),
       reason, expires_at, created_by, created_at, revoked_at
FROM exclusions`
	args := []any{}
	if activeOnly {
		q += ` WHERE (revoked_at IS NULL) AND (expires_at > ?)`
		args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	}
	q += ` ORDER BY created_at DESC, id DESC`
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Exclusion
	for rows.Next() {
		var (
			e           Exclusion
			exp, ca, ra sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Tool, &e.Category, &e.PatternSub, &e.Reason, &exp, &e.CreatedBy, &ca, &ra); err != nil {
			return nil, err
		}
		if exp.Valid {
			if t, err := time.Parse(time.RFC3339Nano, exp.String); err == nil {
				e.ExpiresAt = t
			}
		}
		if ca.Valid {
			if t, err := time.Parse(time.RFC3339Nano, ca.String); err == nil {
				e.CreatedAt = t
			}
		}
		if ra.Valid {
			if t, err := time.Parse(time.RFC3339Nano, ra.String); err == nil {
				e.RevokedAt = &t
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ApplyExclusions filters issues through the active exclusions.
func ApplyExclusions(tool string, issues []model.Issue, exclusions []Exclusion) []model.Issue {
	if len(exclusions) == 0 {
		return issues
	}
	out := issues[:0:0]
	for _, issue := range issues {
		excluded := false
		for _, e := range exclusions {
			if e.Matches(tool, issue) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, issue)
		}
	}
	return out
}

func nz(s string) any {
	if s == "" {
		return nil
	}
	return s
}
