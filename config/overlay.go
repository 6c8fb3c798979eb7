package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. EMODATA_PATHS_INPUT.
const EnvPrefix = "EMODATA"

// NewViper returns a viper instance that resolves dotted config keys from the
// environment. Callers bind CLI flags to the same keys.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Overlay copies every key explicitly set in v (env var or changed flag) over r.
func (r *Root) Overlay(v *viper.Viper) {
	str(v, "pipeline.log_level", &r.Pipeline.LogLvl)
	str(v, "pipeline.log_format", &r.Pipeline.LogFormat)

	str(v, "paths.input", &r.Paths.Input)
	str(v, "paths.audio", &r.Paths.Audio)
	str(v, "paths.text", &r.Paths.Text)
	str(v, "paths.clips", &r.Paths.Clips)
	str(v, "paths.dataset", &r.Paths.Dataset)
	str(v, "paths.state", &r.Paths.State)
	str(v, "paths.outputs", &r.Paths.Outputs)

	strs(v, "video.extensions", &r.Video.Extensions)
	if v.IsSet("video.clip_seconds") {
		r.Video.ClipSeconds = v.GetFloat64("video.clip_seconds")
	}
	str(v, "video.base_name", &r.Video.BaseName)
	str(v, "video.clip_ext", &r.Video.ClipExt)

	if v.IsSet("audio.preprocess") {
		r.Audio.Preprocess = v.GetBool("audio.preprocess")
	}

	str(v, "media.ffmpeg", &r.Media.FFmpeg)
	str(v, "media.ffprobe", &r.Media.FFprobe)
	num(v, "media.timeout", &r.Media.Timeout)

	str(v, "transcription.backend", &r.Transcription.Backend)
	str(v, "transcription.url", &r.Transcription.URL)
	str(v, "transcription.language", &r.Transcription.Language)
	str(v, "transcription.mode", &r.Transcription.Mode)
	num(v, "transcription.timeout", &r.Transcription.Timeout)
	str(v, "transcription.api_key", &r.Transcription.APIKey)
	str(v, "transcription.model", &r.Transcription.Model)
	str(v, "transcription.base_url", &r.Transcription.BaseURL)

	str(v, "lexicon.source", &r.Lexicon.Source)
	if v.IsSet("lexicon.strict") {
		r.Lexicon.Strict = v.GetBool("lexicon.strict")
	}

	str(v, "spell.index", &r.Spell.Index)

	str(v, "annotation.log", &r.Annotation.Log)
	str(v, "annotation.majority", &r.Annotation.Majority)
	str(v, "annotation.addr", &r.Annotation.Addr)
	str(v, "annotation.suggest_url", &r.Annotation.SuggestURL)

	str(v, "notify.amqp_url", &r.Notify.AMQPURL)
	str(v, "notify.queue", &r.Notify.Queue)
}

func str(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func strs(v *viper.Viper, key string, dst *[]string) {
	if v.IsSet(key) {
		*dst = v.GetStringSlice(key)
	}
}

func num(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}
