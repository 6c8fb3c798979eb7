package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeChannel struct {
	key    string
	sent   []amqp.Publishing
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.key = key
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishSendsPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &AMQP{ch: ch, queue: "emotion.clips.ready", now: func() time.Time { return at }}

	msg := ClipsReady{
		RunID:     "run-1",
		VideoPath: "/in/a.mp4",
		BaseName:  "video",
		Clips:     []Clip{{Seq: 4, Path: "clips/video4.mp4", Start: 0, End: 30}},
		Text:      "வணக்கம்",
	}
	if err := p.Publish(context.Background(), msg); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if ch.key != "emotion.clips.ready" || len(ch.sent) != 1 {
		t.Fatalf("key=%q sent=%d", ch.key, len(ch.sent))
	}
	got := ch.sent[0]
	if got.DeliveryMode != amqp.Persistent || got.ContentType != "application/json" {
		t.Fatalf("publishing = %+v", got)
	}
	if got.CorrelationId != "run-1" || got.MessageId == "" || !got.Timestamp.Equal(at) {
		t.Fatalf("ids/timestamp = %q %q %v", got.CorrelationId, got.MessageId, got.Timestamp)
	}

	var body map[string]any
	if err := json.Unmarshal(got.Body, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	for _, k := range []string{"run_id", "video_path", "base_name", "clips", "text"} {
		if _, ok := body[k]; !ok {
			t.Fatalf("body lacks %q: %s", k, got.Body)
		}
	}
}

func TestPublishWrapsBrokerError(t *testing.T) {
	boom := errors.New("channel closed")
	p := &AMQP{ch: &fakeChannel{err: boom}, queue: "q", now: time.Now}
	if err := p.Publish(context.Background(), ClipsReady{}); !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}
}

func TestCloseClosesChannel(t *testing.T) {
	ch := &fakeChannel{}
	if err := (&AMQP{ch: ch}).Close(); err != nil || !ch.closed {
		t.Fatalf("closed=%v err=%v", ch.closed, err)
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), ClipsReady{}); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}
