package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Pipeline struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	LogLvl    string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type Paths struct {
	Input   string `yaml:"input"`
	Audio   string `yaml:"audio"`
	Text    string `yaml:"text"`
	Clips   string `yaml:"clips"`
	Dataset string `yaml:"dataset"`
	State   string `yaml:"state"`
	Outputs string `yaml:"outputs"`
}

// StatePath is the sequence state file. Unless set explicitly it lives in the
// clips directory, so counters follow the clips they number.
func (p Paths) StatePath() string {
	if p.State != "" {
		return p.State
	}
	return filepath.Join(p.Clips, ".sequence.json")
}

type Video struct {
	Extensions  []string `yaml:"extensions"`
	ClipSeconds float64  `yaml:"clip_seconds"`
	BaseName    string   `yaml:"base_name"`
	ClipExt     string   `yaml:"clip_ext"`
	CodecArgs   []string `yaml:"codec_args"`
}

type Audio struct {
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
	Format     string `yaml:"format"`
	Codec      string `yaml:"codec"`
	Preprocess bool   `yaml:"preprocess"`
}

type Media struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
	Timeout int    `yaml:"timeout"`
}

type Transcription struct {
	Backend  string `yaml:"backend"`
	URL      string `yaml:"url"`
	Language string `yaml:"language"`
	Mode     string `yaml:"mode"`
	Timeout  int    `yaml:"timeout"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

type Lexicon struct {
	Source string `yaml:"source"`
	Strict bool   `yaml:"strict"`
}

type Text struct {
	// ScriptRanges holds inclusive code point ranges such as "0B82-0BFA".
	ScriptRanges []string `yaml:"script_ranges"`
}

type Spell struct {
	Index string `yaml:"index"`
}

type Annotation struct {
	Log        string   `yaml:"log"`
	Majority   string   `yaml:"majority"`
	Addr       string   `yaml:"addr"`
	Emotions   []string `yaml:"emotions"`
	SuggestURL string   `yaml:"suggest_url"`
}

type Notify struct {
	AMQPURL string `yaml:"amqp_url"`
	Queue   string `yaml:"queue"`
}

type Root struct {
	Pipeline      Pipeline      `yaml:"pipeline"`
	Paths         Paths         `yaml:"paths"`
	Video         Video         `yaml:"video"`
	Audio         Audio         `yaml:"audio"`
	Media         Media         `yaml:"media"`
	Transcription Transcription `yaml:"transcription"`
	Lexicon       Lexicon       `yaml:"lexicon"`
	Text          Text          `yaml:"text"`
	Spell         Spell         `yaml:"spell"`
	Annotation    Annotation    `yaml:"annotation"`
	Notify        Notify        `yaml:"notify"`
}

// Load reads the YAML config at path. With an empty path it searches the
// CONFIG_ENV locations and falls back to defaults when none exist.
func Load(path string) (*Root, error) {
	if path != "" {
		return loadFile(path)
	}

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	var guess []string = []string{
		filepath.Join("config", env, "config.yaml"),
		"config.yaml",
	}
	for _, p := range guess {
		cfg, err := loadFile(p)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return Default(), nil
}

func loadFile(path string) (*Root, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (r *Root) Validate() error {
	var problems []string
	if r.Video.ClipSeconds <= 0 {
		problems = append(problems, "video.clip_seconds must be > 0")
	}
	if strings.TrimSpace(r.Video.BaseName) == "" {
		problems = append(problems, "video.base_name is required")
	}
	if len(r.Video.Extensions) == 0 {
		problems = append(problems, "video.extensions must not be empty")
	}
	switch r.Transcription.Mode {
	case "single", "multi":
	default:
		problems = append(problems, fmt.Sprintf("transcription.mode %q must be single or multi", r.Transcription.Mode))
	}
	switch r.Transcription.Backend {
	case "http", "whisper":
	default:
		problems = append(problems, fmt.Sprintf("transcription.backend %q must be http or whisper", r.Transcription.Backend))
	}
	switch r.Spell.Index {
	case "linear", "bktree":
	default:
		problems = append(problems, fmt.Sprintf("spell.index %q must be linear or bktree", r.Spell.Index))
	}
	if r.Paths.Dataset == "" {
		problems = append(problems, "paths.dataset is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }
