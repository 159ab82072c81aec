package store

import (
	"context"
	"testing"

	"github.com/AiWaldoh/a-i-d-a/internal/trace"
)

func TestEventRoundtrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	events := []trace.Event{
		trace.NewEvent("brain_session_started", "run-1", map[string]any{"target": "10.10.10.5"}),
		trace.NewEvent("brain_decision", "run-1", map[string]any{"iteration": 1, "directive": "scan ports"}),
		trace.NewEvent("loop_started", "run-2", map[string]any{"task": "other run"}),
	}
	for _, ev := range events {
		if err := s.SaveEvent(ctx, ev); err != nil {
			t.Fatalf("SaveEvent(%s) error = %v", ev.Type, err)
		}
	}

	loaded, err := s.Events(ctx, "run-1")
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Events() = %d events, want 2", len(loaded))
	}
	if loaded[0].Type != "brain_session_started" || loaded[1].Type != "brain_decision" {
		t.Errorf("event order = %s, %s", loaded[0].Type, loaded[1].Type)
	}
	if got := loaded[0].Data["target"]; got != "10.10.10.5" {
		t.Errorf("Data[target] = %v", got)
	}
	if loaded[0].Timestamp.IsZero() {
		t.Error("timestamp lost in roundtrip")
	}
}

func TestEventSinkWritesThroughStore(t *testing.T) {
	s := testStore(t)
	sink := NewEventSink(s)

	sink.Emit(trace.NewEvent("tool_request", "run-1", map[string]any{"tool_name": "run_cmd"}))
	sink.Emit(trace.NewEvent("tool_response", "run-1", map[string]any{"tool_name": "run_cmd"}))
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	loaded, err := s.Events(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Events() = %d events after Close, want 2", len(loaded))
	}

	// The shared store stays usable after the sink is gone.
	if err := s.CreateRun(context.Background(), "run-1", "t", "g"); err != nil {
		t.Errorf("store unusable after sink Close: %v", err)
	}
}

func TestEventSinkEmitAfterCloseIsSafe(t *testing.T) {
	s := testStore(t)
	sink := NewEventSink(s)
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Must not panic or block.
	sink.Emit(trace.NewEvent("late", "run-1", nil))
	_ = sink.Close()
}

func TestEventWithoutData(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveEvent(ctx, trace.NewEvent("loop_started", "run-1", nil)); err != nil {
		t.Fatalf("SaveEvent() error = %v", err)
	}

	loaded, err := s.Events(ctx, "run-1")
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(loaded) != 1 || loaded[0].Data != nil {
		t.Errorf("Events() = %+v, want one event with nil data", loaded)
	}
}
