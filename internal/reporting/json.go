package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codewithboateng/trendline/internal/storage"
)

func trendFileName(job string, build int, ext string) string {
	return fmt.Sprintf("trend_%s_%d.%s", job, build, ext)
}

// WriteResultJSON writes one build's stored result to outDir.
func WriteResultJSON(outDir string, r *storage.ResultRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, fmt.Sprintf("result_%s_%d.json", r.Job, r.Number))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return path, nil
}
