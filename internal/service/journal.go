package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cwrk-planet/bowling-server/internal/domain"
)

// Journal receives authoritative room transitions. Record must not block.
type Journal interface {
	Record(e domain.RoomEvent)
}

type NopJournal struct{}

func (NopJournal) Record(domain.RoomEvent) {}

type EventSaver interface {
	Save(ctx context.Context, e domain.RoomEvent) error
}

// AsyncJournal queues events in a bounded buffer drained by Run.
// When the buffer is full the event is dropped and counted.
type AsyncJournal struct {
	saver       EventSaver
	ch          chan domain.RoomEvent
	saveTimeout time.Duration
	dropped     atomic.Int64
}

func NewAsyncJournal(saver EventSaver, buffer int) *AsyncJournal {
	if buffer <= 0 {
		buffer = 256
	}
	return &AsyncJournal{
		saver:       saver,
		ch:          make(chan domain.RoomEvent, buffer),
		saveTimeout: 5 * time.Second,
	}
}

func (j *AsyncJournal) Record(e domain.RoomEvent) {
	select {
	case j.ch <- e:
	default:
		n := j.dropped.Add(1)
		slog.Warn("journal buffer full, event dropped",
			"room", e.RoomCode, "kind", e.Kind, "dropped_total", n)
	}
}

func (j *AsyncJournal) Dropped() int64 { return j.dropped.Load() }

// Run saves queued events until ctx is done, then flushes what is already queued.
func (j *AsyncJournal) Run(ctx context.Context) {
	for {
		select {
		case e := <-j.ch:
			j.save(ctx, e)
		case <-ctx.Done():
			j.flush()
			return
		}
	}
}

func (j *AsyncJournal) flush() {
	for {
		select {
		case e := <-j.ch:
			j.save(context.Background(), e)
		default:
			return
		}
	}
}

func (j *AsyncJournal) save(ctx context.Context, e domain.RoomEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), j.saveTimeout)
	defer cancel()

	if err := j.saver.Save(ctx, e); err != nil {
		slog.Error("journal save failed", "room", e.RoomCode, "kind", e.Kind, "err", err)
	}
}
