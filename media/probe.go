package media

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Prober reads container durations with ffprobe.
type Prober struct {
	ffprobe string
	runner  CommandRunner
}

func NewProber(ffprobe string, r CommandRunner) *Prober {
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	return &Prober{ffprobe: ffprobe, runner: r}
}

// Duration returns the container duration of path in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	log, err := p.runner.Run(ctx, p.ffprobe, buildProbeArgs(path)...)
	if err != nil {
		return 0, err
	}
	return parseProbeDuration(log.Stdout)
}

func buildProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

func parseProbeDuration(out string) (float64, error) {
	s := strings.TrimSpace(out)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration %q: %w", s, err)
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, fmt.Errorf("ffprobe duration %q is not a usable length", s)
	}
	return d, nil
}
