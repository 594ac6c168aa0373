package services

import (
	"assetmap/models"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const sampleEvent = `{"object_id":7,"tag_id":"tag-7","timestamp":"2026-05-04T10:00:00.123Z","is_valid":true,` +
	`"x":12.5,"y":40,"z":0,"a":1.57,"battery":{"percentage":64,"is_charging":false},"flags":[]}`

func TestDecodeEvent(t *testing.T) {
	id, w, err := DecodeEvent([]byte(sampleEvent))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}

	rec, err := models.DecodeWireRecord(w)
	if err != nil {
		t.Fatalf("wire record invalid: %v", err)
	}
	if rec.X != 12.5 || rec.Y != 40 || rec.Heading != 1.57 || !rec.Valid || rec.BatteryPercentage != 64 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	want := time.Date(2026, 5, 4, 10, 0, 0, 123e6, time.UTC)
	if !rec.ObservedAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, rec.ObservedAt)
	}
}

func TestDecodeEventRejects(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"object_id":`,
		"missing id":      `{"timestamp":"2026-05-04T10:00:00Z","is_valid":true,"x":1,"y":1,"a":0,"battery":{"percentage":1}}`,
		"missing battery": `{"object_id":1,"timestamp":"2026-05-04T10:00:00Z","is_valid":true,"x":1,"y":1,"a":0}`,
		"bad timestamp":   `{"object_id":1,"timestamp":"yesterday","is_valid":true,"x":1,"y":1,"a":0,"battery":{"percentage":1}}`,
		"id above 2^53":   strings.Replace(sampleEvent, `"object_id":7`, `"object_id":9007199254740993`, 1),
		"negative id":     strings.Replace(sampleEvent, `"object_id":7`, `"object_id":-4`, 1),
		"battery range":   `{"object_id":1,"timestamp":"2026-05-04T10:00:00Z","is_valid":true,"x":1,"y":1,"a":0,"battery":{"percentage":140}}`,
	}
	for name, payload := range cases {
		if _, _, err := DecodeEvent([]byte(payload)); !errors.Is(err, ErrMalformedEvent) {
			t.Fatalf("%s: expected ErrMalformedEvent, got %v", name, err)
		}
	}
}

func TestDecodeEventLargestExactID(t *testing.T) {
	payload := strings.Replace(sampleEvent, `"object_id":7`, `"object_id":9007199254740992`, 1)
	id, w, err := DecodeEvent([]byte(payload))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	rec, err := models.DecodeWireRecord(w)
	if err != nil {
		t.Fatalf("wire record invalid: %v", err)
	}
	if id != models.MaxObjectID || rec.ObjectID != id {
		t.Fatalf("id not kept exactly: key=%d stored=%d", id, rec.ObjectID)
	}
}

func TestReadEventsFraming(t *testing.T) {
	stream := ": keep-alive\n" +
		"event: telemetry\n" +
		"data: {\"a\":1}\n\n" +
		"data: line1\n" +
		"data: line2\n" +
		"id: 3\n\n" +
		"\n" +
		"data:nospace\n\n" +
		"data: trailing-without-blank"

	var got []string
	err := readEvents(strings.NewReader(stream), func(p []byte) { got = append(got, string(p)) }, func(err error) {
		t.Fatalf("unexpected drop: %v", err)
	})
	if !errors.Is(err, ErrStreamEnded) {
		t.Fatalf("expected ErrStreamEnded, got %v", err)
	}

	want := []string{`{"a":1}`, "line1\nline2", "nospace"}
	if len(got) != len(want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestReadEventsSkipsOversizedEvent(t *testing.T) {
	huge := strings.Repeat("x", 2*maxEventSize)
	half := strings.Repeat("y", maxEventSize/2+1)
	stream := "data: " + huge + "\n" +
		"data: still-the-same-event\n\n" +
		"data: {\"ok\":1}\n\n" +
		"data: " + half + "\n" +
		"data: " + half + "\n\n" +
		"data: {\"ok\":2}\n\n"

	sink := &recordingSink{}
	err := readEvents(strings.NewReader(stream), sink.Event, sink.Drop)
	if !errors.Is(err, ErrStreamEnded) {
		t.Fatalf("expected the stream to run to its end, got %v", err)
	}

	if len(sink.events) != 2 || string(sink.events[0]) != `{"ok":1}` || string(sink.events[1]) != `{"ok":2}` {
		t.Fatalf("expected both valid events delivered, got %d events", len(sink.events))
	}
	if len(sink.drops) != 2 {
		t.Fatalf("expected 2 dropped events, got %d", len(sink.drops))
	}
	for _, err := range sink.drops {
		if !errors.Is(err, ErrEventTooLarge) {
			t.Fatalf("expected ErrEventTooLarge, got %v", err)
		}
	}
}

func TestStreamDecoderKeepsConnectionAfterOversizedEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", strings.Repeat("z", maxEventSize+10))
		fmt.Fprintf(w, "data: %s\n\n", sampleEvent)
		w.(http.Flusher).Flush()
		// 연결 유지
		<-r.Context().Done()
	}))
	defer srv.Close()

	metrics := NewPipelineMetrics(prometheus.NewRegistry())
	mailbox := NewMailbox(metrics)
	decoder := NewStreamDecoder(NewSSESource(srv.URL), mailbox, DefaultReconnectConfig(), nil, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		decoder.Run(ctx)
	}()

	select {
	case <-mailbox.Ready():
	case <-ctx.Done():
		t.Fatal("valid event after the oversized one was not delivered")
	}
	cancel()
	<-done

	if got := testutil.ToFloat64(metrics.EventsDropped.WithLabelValues(DropReasonParse)); got != 1 {
		t.Fatalf("expected 1 parse drop, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.Reconnects); got != 0 {
		t.Fatalf("expected no reconnect, got %f", got)
	}
	if records := mailbox.Drain(); len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestStreamDecoderDeliversToMailbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			http.Error(w, "bad accept", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", sampleEvent)
		fmt.Fprint(w, "data: {broken\n\n")
		fmt.Fprintf(w, "data: %s\n\n", strings.Replace(sampleEvent, `"x":12.5`, `"x":13`, 1))
	}))
	defer srv.Close()

	metrics := NewPipelineMetrics(prometheus.NewRegistry())
	mailbox := NewMailbox(metrics)
	decoder := NewStreamDecoder(NewSSESource(srv.URL), mailbox, ReconnectConfig{
		RetryDelay:    time.Millisecond,
		MaxRetryDelay: time.Millisecond,
		MaxRetries:    1,
	}, nil, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// 서버가 매 연결마다 스트림을 끝내므로 결국 재연결 한도 또는 타임아웃으로 종료
	go decoder.Run(ctx)

	select {
	case <-mailbox.Ready():
	case <-ctx.Done():
		t.Fatal("no record reached the mailbox")
	}
	cancel()

	records := mailbox.Drain()
	if len(records) != 1 {
		t.Fatalf("expected one coalesced record, got %d", len(records))
	}
	if x := records[0].Slot(models.SlotX); x != 12.5 && x != 13 {
		t.Fatalf("unexpected x %v", x)
	}
	if got := testutil.ToFloat64(metrics.EventsReceived); got < 1 {
		t.Fatalf("expected received events, got %f", got)
	}
}

func TestSSESourceRejectsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sink := &recordingSink{}
	err := NewSSESource(srv.URL).Stream(context.Background(), sink)
	if err == nil {
		t.Fatal("expected error on non-200 status")
	}
	if sink.connected {
		t.Fatal("sink must not be marked connected")
	}
}

type recordingSink struct {
	connected bool
	events    [][]byte
	drops     []error
}

func (s *recordingSink) Connected() { s.connected = true }

func (s *recordingSink) Event(payload []byte) { s.events = append(s.events, payload) }

func (s *recordingSink) Drop(err error) { s.drops = append(s.drops, err) }
