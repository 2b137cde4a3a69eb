package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/seiflow/seiflow/internal/caselog"
	"github.com/seiflow/seiflow/internal/casestore"
)

type recordingImporter struct {
	cases []*caselog.CaseExport
	err   error
}

func (r *recordingImporter) ImportCase(c *caselog.CaseExport) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.cases = append(r.cases, c)
	return "import-1", nil
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		wantCase string
		wantErr  bool
	}{
		{"case in body", Message{Value: []byte(`{"case":"A","pages":[]}`)}, "A", false},
		{"case from key", Message{Key: []byte("B"), Value: []byte(`{"pages":[]}`)}, "B", false},
		{"key agrees", Message{Key: []byte("C"), Value: []byte(`{"case":"C"}`)}, "C", false},
		{"key disagrees", Message{Key: []byte("X"), Value: []byte(`{"case":"C"}`)}, "", true},
		{"no case id", Message{Value: []byte(`{"pages":[]}`)}, "", true},
		{"malformed", Message{Value: []byte(`{"case":`)}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.msg)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEnvelope) {
					t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Case != tt.wantCase {
				t.Fatalf("expected case %s, got %s", tt.wantCase, got.Case)
			}
		})
	}
}

func TestEncodeDecodeEnvelope(t *testing.T) {
	c := &caselog.CaseExport{
		Case: "00002.000123/2024-11",
		Pages: []caselog.EventPage{{
			Info:   caselog.PageInfo{Page: 1, TotalPages: 1, ItemsOnPage: 1, TotalItems: 1},
			Events: []caselog.Event{{ID: "1", TaskType: caselog.TaskCreation, TimestampRaw: "01/01/2024 10:00:00"}},
		}},
	}
	msg, err := Encode(c)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(msg.Key) != c.Case {
		t.Fatalf("expected key %s, got %s", c.Case, msg.Key)
	}
	got, err := Decode(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Events()) != 1 || got.Events()[0].TaskType != caselog.TaskCreation {
		t.Fatalf("unexpected decoded events %+v", got.Events())
	}
	if _, err := Encode(&caselog.CaseExport{}); !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope for missing case, got %v", err)
	}
}

func TestRunImportsAndSkipsInvalid(t *testing.T) {
	consumer := NewChannelConsumer()
	importer := &recordingImporter{}

	consumer.Send(Message{Topic: "t", Key: []byte("A"), Value: []byte(`{"case":"A"}`)})
	consumer.Send(Message{Topic: "t", Value: []byte(`not json`)})
	consumer.Send(Message{Topic: "t", Value: []byte(`{"case":"B"}`)})
	_ = consumer.Close()

	stats, err := Run(context.Background(), consumer, importer)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Imported != 2 || stats.Rejected != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if importer.cases[0].Case != "A" || importer.cases[1].Case != "B" {
		t.Fatalf("unexpected import order %+v", importer.cases)
	}
}

func TestRunStopsOnImportError(t *testing.T) {
	consumer := NewChannelConsumer()
	importer := &recordingImporter{err: errors.New("disk full")}
	consumer.Send(Message{Value: []byte(`{"case":"A"}`)})

	_, err := Run(context.Background(), consumer, importer)
	if err == nil {
		t.Fatal("expected import error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	consumer := NewChannelConsumer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := Run(ctx, consumer, &recordingImporter{}); err != nil {
			t.Errorf("run: %v", err)
		}
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestRunIntoCaseStore(t *testing.T) {
	store, err := casestore.NewCaseStore(filepath.Join(t.TempDir(), "cases.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	consumer := NewChannelConsumer()
	consumer.Send(Message{Key: []byte("P-1"), Value: []byte(`{
		"pages": [{"Info": {"page": 1, "totalPages": 1, "itemsOnPage": 1, "totalItems": 1},
			"events": [{"id": "1", "taskType": "GERACAO-PROCEDIMENTO", "timestamp": "01/01/2024 10:00:00",
				"unit": {"id": "u1", "shortCode": "SEAD"}, "user": {"id": "7", "shortCode": "jdoe", "name": "Jane"}}]}]
	}`)})
	_ = consumer.Close()

	if _, err := Run(context.Background(), consumer, store); err != nil {
		t.Fatalf("run: %v", err)
	}
	loaded, err := store.LoadCase("P-1")
	if err != nil {
		t.Fatalf("load case: %v", err)
	}
	events := loaded.Events()
	if len(events) != 1 || events[0].Unit.ShortCode != "SEAD" {
		t.Fatalf("unexpected stored events %+v", events)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := splitBrokers(" a:9092, ,b:9092 ")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
}

func TestKafkaConsumerCloseWithFullBuffer(t *testing.T) {
	c := NewKafkaConsumer("localhost:9092", "group", nil)
	c.messages = make(chan Message, 1)
	c.messages <- Message{Topic: "cases", Value: []byte(`{}`)}

	// a reader that already read a message and is parked on the full channel
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	parked := make(chan struct{})
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		close(parked)
		c.deliver(ctx, Message{Topic: "cases", Value: []byte(`{}`)})
	}()
	<-parked

	done := make(chan error, 1)
	go func() { done <- c.Close() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a reader parked on the full message channel")
	}
	for range c.Messages() {
	}
}

func TestKafkaConsumerDeliverStopsOnCancel(t *testing.T) {
	c := NewKafkaConsumer("localhost:9092", "group", nil)
	c.messages = make(chan Message)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if c.deliver(ctx, Message{Topic: "cases"}) {
		t.Fatal("expected deliver to give up on a cancelled context")
	}
}
