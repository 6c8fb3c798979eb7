package config

// Default returns the configuration used when no file sets a value.
func Default() *Root {
	return &Root{
		Pipeline: Pipeline{
			Name:      "emotion-dataset",
			Version:   "1.0.0",
			LogLvl:    "info",
			LogFormat: "text",
		},
		Paths: Paths{
			Input:   "videos",
			Audio:   "audio",
			Text:    "text_extracted",
			Clips:   "output_videos",
			Dataset: "dataset.csv",
			Outputs: "outputs",
		},
		Video: Video{
			Extensions:  []string{".mp4"},
			ClipSeconds: 30,
			BaseName:    "video",
			ClipExt:     ".mp4",
			CodecArgs:   []string{"-c:v", "libx264", "-preset", "veryfast", "-c:a", "aac"},
		},
		Audio: Audio{
			SampleRate: 16000,
			Channels:   1,
			Format:     "wav",
			Codec:      "pcm_s16le",
		},
		Media: Media{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			Timeout: 600,
		},
		Transcription: Transcription{
			Backend:  "http",
			URL:      "http://localhost:8001",
			Language: "ta-IN",
			Mode:     "single",
			Timeout:  60,
			Model:    "whisper-1",
		},
		Lexicon: Lexicon{
			Source: "lexicon.json",
			Strict: true,
		},
		Text: Text{
			ScriptRanges: []string{"0B82-0BFA"},
		},
		Spell: Spell{
			Index: "bktree",
		},
		Annotation: Annotation{
			Log:      "annotations.csv",
			Majority: "majority_emotions.csv",
			Addr:     ":5000",
			Emotions: []string{"happy", "sad", "angry", "fear", "surprise", "disgust", "neutral"},
		},
		Notify: Notify{
			Queue: "emotion.clips.ready",
		},
	}
}
