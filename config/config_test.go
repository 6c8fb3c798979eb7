package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Video.ClipSeconds != 30 {
		t.Fatalf("clip seconds = %v, want 30", cfg.Video.ClipSeconds)
	}
	if !cfg.Lexicon.Strict {
		t.Fatal("lexicon should be strict by default")
	}
}

func TestLoadFileKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
video:
  clip_seconds: 10
  base_name: clip
transcription:
  mode: multi
lexicon:
  strict: false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Video.ClipSeconds != 10 || cfg.Video.BaseName != "clip" {
		t.Fatalf("video = %+v", cfg.Video)
	}
	if cfg.Transcription.Mode != "multi" {
		t.Fatalf("mode = %q, want multi", cfg.Transcription.Mode)
	}
	if cfg.Lexicon.Strict {
		t.Fatal("strict should be overridden to false")
	}
	if cfg.Transcription.Language != "ta-IN" {
		t.Fatalf("language = %q, want default ta-IN", cfg.Transcription.Language)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("video: [unclosed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected yaml parse error")
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.Video.ClipSeconds = 0
	cfg.Transcription.Mode = "stream"
	cfg.Spell.Index = "trie"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"clip_seconds", "transcription.mode", "spell.index"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestOverlayFromEnv(t *testing.T) {
	t.Setenv("EMODATA_PATHS_INPUT", "/data/in")
	t.Setenv("EMODATA_VIDEO_CLIP_SECONDS", "12.5")
	t.Setenv("EMODATA_LEXICON_STRICT", "false")

	cfg := Default()
	cfg.Overlay(NewViper())

	if cfg.Paths.Input != "/data/in" {
		t.Fatalf("input = %q", cfg.Paths.Input)
	}
	if cfg.Video.ClipSeconds != 12.5 {
		t.Fatalf("clip seconds = %v", cfg.Video.ClipSeconds)
	}
	if cfg.Lexicon.Strict {
		t.Fatal("strict should be false")
	}
	if cfg.Paths.Dataset != "dataset.csv" {
		t.Fatalf("unset keys must keep their value, dataset = %q", cfg.Paths.Dataset)
	}
}

func TestStatePathFollowsClips(t *testing.T) {
	t.Setenv("EMODATA_PATHS_CLIPS", "/data/clips")

	cfg := Default()
	if got := cfg.Paths.StatePath(); got != filepath.Join("output_videos", ".sequence.json") {
		t.Fatalf("default state = %q", got)
	}
	cfg.Overlay(NewViper())
	if got := cfg.Paths.StatePath(); got != filepath.Join("/data/clips", ".sequence.json") {
		t.Fatalf("state = %q, want it under the clips override", got)
	}

	t.Setenv("EMODATA_PATHS_STATE", "/var/lib/emodata/state.json")
	cfg.Overlay(NewViper())
	if got := cfg.Paths.StatePath(); got != "/var/lib/emodata/state.json" {
		t.Fatalf("explicit state = %q", got)
	}
}
