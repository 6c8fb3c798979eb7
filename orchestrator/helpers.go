package orchestrator

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maastricht-university/emotion-dataset/media"
)

// Discover lists the videos in dir whose extension is one of exts (case
// insensitive), sorted by file name. Hidden files and directories are ignored.
func Discover(dir string, exts []string) ([]media.Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	want := map[string]bool{}
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[e] = true
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !want[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]media.Source, 0, len(names))
	for _, n := range names {
		out = append(out, media.NewSource(filepath.Join(dir, n)))
	}
	return out, nil
}

// writeText writes one line per utterance, UTF-8, newline terminated. An
// empty transcript produces an empty file.
func writeText(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
