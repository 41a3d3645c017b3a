package reporting

import (
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/codewithboateng/trendline/internal/model"
)

// WriteTrendHTML writes a human-readable trend page for one build.
func WriteTrendHTML(job string, build int, tool string, referenceBuild int, outDir string, d TrendDelta) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, trendFileName(job, build, "html"))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	title := fmt.Sprintf("%s #%d", job, build)

	// Head + styles
	fmt.Fprintf(f, "<!doctype html><html><head><meta charset='utf-8'><title>%s</title>", html.EscapeString(title))
	fmt.Fprint(f, "<style>body{font-family:system-ui,Arial,sans-serif;padding:20px;line-height:1.4} table{border-collapse:collapse;margin:8px 0} td,th{border:1px solid #ddd;padding:6px} h1,h2{margin:6px 0 4px} .dim{color:#666} .mono{font-family:ui-monospace,Menlo,Consolas,monospace}</style>")
	fmt.Fprint(f, "</head><body>")

	// Title + summary
	fmt.Fprintf(f, "<h1>trendline report – <span class='mono'>%s</span></h1>", html.EscapeString(title))
	fmt.Fprintf(f, "<p class='dim'>Tool: %s</p>", html.EscapeString(tool))
	if referenceBuild > 0 {
		fmt.Fprintf(f, "<p>Reference build: <span class='mono'>#%d</span></p>", referenceBuild)
	} else {
		fmt.Fprint(f, "<p class='dim'>No reference build; all issues counted as outstanding baseline.</p>")
	}
	s := d.Summary()
	fmt.Fprintf(f, "<p><b>New</b>: %d &nbsp; <b>Fixed</b>: %d &nbsp; <b>Outstanding</b>: %d</p>",
		s.NewCount, s.FixedCount, s.OutstandingCount)

	writeIssueTable(f, "New issues", d.New)
	writeIssueTable(f, "Fixed issues", d.Fixed)
	writeIssueTable(f, "Outstanding issues", d.Outstanding)

	fmt.Fprint(f, "</body></html>")
	return path, nil
}

func writeIssueTable(f *os.File, heading string, issues []model.Issue) {
	fmt.Fprintf(f, "<h2>%s</h2>", html.EscapeString(heading))
	if len(issues) == 0 {
		fmt.Fprint(f, "<p class='dim'>none</p>")
		return
	}
	fmt.Fprint(f, "<table><tr><th>Severity</th><th>Category</th><th>Message</th><th>Location</th></tr>")
	for _, i := range issues {
		loc := ""
		if i.File != "" {
			loc = fmt.Sprintf("%s:%d", i.File, i.Line)
		}
		fmt.Fprintf(f, "<tr><td>%s</td><td>%s</td><td>%s</td><td class='mono'>%s</td></tr>",
			html.EscapeString(i.Severity),
			html.EscapeString(i.Category),
			html.EscapeString(i.Message),
			html.EscapeString(loc),
		)
	}
	fmt.Fprint(f, "</table>")
}
