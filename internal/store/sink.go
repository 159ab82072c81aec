package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AiWaldoh/a-i-d-a/internal/trace"
)

// SaveEvent mirrors one trace event into the database.
func (s *RunStore) SaveEvent(ctx context.Context, ev trace.Event) error {
	var data sql.NullString
	if ev.Data != nil {
		payload, err := json.Marshal(ev.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		data = sql.NullString{String: string(payload), Valid: true}
	}
	query := `INSERT INTO trace_events (trace_id, event_type, emitted_at, data) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, ev.TraceID, ev.Type, ev.Timestamp.UnixNano(), data); err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

// Events reloads every event of one trace in emission order.
func (s *RunStore) Events(ctx context.Context, traceID string) ([]trace.Event, error) {
	query := `
		SELECT event_type, emitted_at, data
		FROM trace_events
		WHERE trace_id = ?
		ORDER BY event_id
	`
	rows, err := s.db.QueryContext(ctx, query, traceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []trace.Event
	for rows.Next() {
		ev := trace.Event{TraceID: traceID}
		var emittedAt int64
		var data sql.NullString
		if err := rows.Scan(&ev.Type, &emittedAt, &data); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Timestamp = time.Unix(0, emittedAt)
		if data.Valid {
			if err := json.Unmarshal([]byte(data.String), &ev.Data); err != nil {
				return nil, fmt.Errorf("failed to parse event data: %w", err)
			}
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

const eventBufferSize = 256

// EventSink adapts a RunStore into a trace sink. Inserts happen on a
// background goroutine behind a bounded buffer; a full buffer drops the
// event instead of stalling the traced loop. Close stops the worker but
// leaves the shared store open for its other callers.
type EventSink struct {
	store   *RunStore
	events  chan trace.Event
	quit    chan struct{}
	done    chan struct{}
	closing sync.Once
	dropped atomic.Int64
}

// NewEventSink starts the writer goroutine over an already-open store.
func NewEventSink(store *RunStore) *EventSink {
	s := &EventSink{
		store:  store,
		events: make(chan trace.Event, eventBufferSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Emit queues the event for insertion. Never blocks.
func (s *EventSink) Emit(ev trace.Event) {
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
func (s *EventSink) Dropped() int64 { return s.dropped.Load() }

// Close drains buffered events and stops the worker. Safe to call more
// than once; the underlying store is not closed.
func (s *EventSink) Close() error {
	s.closing.Do(func() { close(s.quit) })
	<-s.done
	return nil
}

func (s *EventSink) run() {
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

func (s *EventSink) write(ev trace.Event) {
	// Insert failures are swallowed: tracing must never surface errors
	// into the traced run.
	_ = s.store.SaveEvent(context.Background(), ev)
}
