// Package trace captures structured events from loop and orchestrator
// runs. Sinks are fire-and-forget observers: emitting never blocks or
// fails the control flow being traced.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Event is one observation: a reasoning call, a tool dispatch, or a
// lifecycle boundary. TraceID correlates every event of one run.
type Event struct {
	Type      string         `json:"event_type"`
	TraceID   string         `json:"trace_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, traceID string, data map[string]any) Event {
	return Event{
		Type:      eventType,
		TraceID:   traceID,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// EventSink receives events. Implementations must never block the caller.
type EventSink interface {
	Emit(Event)
	Close() error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Emit(Event)   {}
func (NopSink) Close() error { return nil }

// MultiSink fans events out to every sink in order.
type MultiSink []EventSink

func (ms MultiSink) Emit(ev Event) {
	for _, s := range ms {
		s.Emit(ev)
	}
}

// Close closes every sink and returns the first failure.
func (ms MultiSink) Close() error {
	var first error
	for _, s := range ms {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

const sinkBufferSize = 256

// FileEventSink appends events to a JSONL file. Writes happen on a
// background goroutine behind a bounded buffer; when the buffer is full
// the event is dropped rather than stalling the loop. Dropped counts are
// exposed so a trace reader can tell the log is incomplete.
type FileEventSink struct {
	f       *os.File
	enc     *json.Encoder
	events  chan Event
	quit    chan struct{}
	done    chan struct{}
	closing sync.Once
	dropped atomic.Int64
}

// NewFileEventSink opens (creating directories as needed) the trace file
// for appending and starts the writer goroutine.
func NewFileEventSink(path string) (*FileEventSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	s := &FileEventSink{
		f:      f,
		enc:    json.NewEncoder(f),
		events: make(chan Event, sinkBufferSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Emit queues the event for writing. Never blocks: a full buffer or a
// closed sink drops the event.
func (s *FileEventSink) Emit(ev Event) {
	select {
	case <-s.quit:
		return
	default:
	}
	select {
	case s.events <- ev:
	default:
		s.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded due to backpressure.
func (s *FileEventSink) Dropped() int64 { return s.dropped.Load() }

// Close drains buffered events, stops the writer, and closes the file.
// Safe to call more than once.
func (s *FileEventSink) Close() error {
	s.closing.Do(func() { close(s.quit) })
	<-s.done
	return s.f.Close()
}

func (s *FileEventSink) run() {
	defer close(s.done)
	for {
		select {
		case ev := <-s.events:
			s.write(ev)
		case <-s.quit:
			for {
				select {
				case ev := <-s.events:
					s.write(ev)
				default:
					return
				}
			}
		}
	}
}

func (s *FileEventSink) write(ev Event) {
	// Encoding failures are swallowed: tracing must never surface errors
	// into the traced run.
	_ = s.enc.Encode(ev)
}
