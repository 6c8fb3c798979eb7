package sequence

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ScanHighest returns the largest n among entries of dir named
// "{base}{n}{ext}". Entries whose suffix is not all digits are ignored. A
// missing directory counts as empty. An empty ext matches any extension.
func ScanHighest(dir, base, ext string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	highest := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		fileExt := filepath.Ext(name)
		if ext != "" && !strings.EqualFold(fileExt, ext) {
			continue
		}
		digits := strings.TrimSuffix(name[len(base):], fileExt)
		if !allDigits(digits) {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest, nil
}

// Scanner binds ScanHighest to one directory, base name and extension.
func Scanner(dir, base, ext string) ScanFunc {
	return func() (int, error) { return ScanHighest(dir, base, ext) }
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
