// Package notify announces freshly written clips to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
)

type Clip struct {
	Seq   int     `json:"seq"`
	Path  string  `json:"path"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ClipsReady is published once per recorded source video that produced clips.
type ClipsReady struct {
	RunID     string `json:"run_id"`
	VideoPath string `json:"video_path"`
	BaseName  string `json:"base_name"`
	Clips     []Clip `json:"clips"`
	Text      string `json:"text"`
}

func (m ClipsReady) Encode() ([]byte, error) { return json.Marshal(m) }

type Publisher interface {
	Publish(ctx context.Context, msg ClipsReady) error
	Close() error
}

// Nop drops every message. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, ClipsReady) error { return nil }
func (Nop) Close() error                              { return nil }
