package orchestrator

import (
	"time"

	"github.com/maastricht-university/emotion-dataset/dataset"
	"github.com/maastricht-university/emotion-dataset/media"
)

// Stage is a step of the per-video state machine. A video moves forward
// through the stages in declaration order; a failed stage is logged and the
// video carries on with empty fields.
type Stage string

const (
	StageDiscovered     Stage = "discovered"
	StageAudioExtracted Stage = "audio_extracted"
	StageTranscribed    Stage = "transcribed"
	StageNormalized     Stage = "normalized"
	StageSegmented      Stage = "segmented"
	StageRecorded       Stage = "recorded"
)

// Outcome is what happened to one source video.
type Outcome struct {
	Video          string           `json:"video"`
	Reached        Stage            `json:"reached"`
	Skipped        bool             `json:"skipped,omitempty"`
	Unintelligible bool             `json:"unintelligible,omitempty"`
	EmptyText      bool             `json:"empty_text,omitempty"`
	Failures       map[Stage]string `json:"failures,omitempty"`
	Causes         map[Stage]string `json:"causes,omitempty"`
	Clips          []media.Clip     `json:"clips,omitempty"`
	Row            *dataset.Row     `json:"-"`
}

func (o *Outcome) fail(stage Stage, label string, err error) {
	if o.Failures == nil {
		o.Failures = map[Stage]string{}
		o.Causes = map[Stage]string{}
	}
	o.Failures[stage] = label
	o.Causes[stage] = err.Error()
}

// Report summarises one run.
type Report struct {
	RunID          string        `json:"run_id"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Discovered     int           `json:"discovered"`
	Processed      int           `json:"processed"`
	Skipped        int           `json:"skipped"`
	Recorded       int           `json:"recorded"`
	Unintelligible int           `json:"unintelligible"`
	EmptyText      int           `json:"empty_text"`
	ClipsWritten   int           `json:"clips_written"`
	Failed         map[Stage]int `json:"failed"`
	Videos         []Outcome     `json:"videos"`
}

func newReport(runID string, now time.Time) *Report {
	return &Report{RunID: runID, StartedAt: now, Failed: map[Stage]int{}}
}

func (r *Report) add(o Outcome) {
	r.Videos = append(r.Videos, o)
	if o.Skipped {
		r.Skipped++
		return
	}
	r.Processed++
	if o.Reached == StageRecorded {
		r.Recorded++
	}
	if o.Unintelligible {
		r.Unintelligible++
	}
	if o.EmptyText {
		r.EmptyText++
	}
	r.ClipsWritten += len(o.Clips)
	for stage := range o.Failures {
		r.Failed[stage]++
	}
}
