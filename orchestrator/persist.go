package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// mkRunDir creates {outputsRoot}/run_{timestamp}_{id prefix}.
func mkRunDir(outputsRoot string, r *Report) (string, error) {
	id := r.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	dir := filepath.Join(outputsRoot, "run_"+r.StartedAt.Format("20060102-150405")+"_"+id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Persist writes the run report as report.json into a fresh run directory
// under outputsRoot and returns its path.
func Persist(outputsRoot string, r *Report) (string, error) {
	dir, err := mkRunDir(outputsRoot, r)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "report.json")
	if err := writeJSON(path, r); err != nil {
		return "", err
	}
	return path, nil
}
