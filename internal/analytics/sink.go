package analytics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shop-agent/backend/pkg/logger"
)

// Sink records chat transactions asynchronously. Record never blocks the
// chat response: entries go through a bounded channel drained by a single
// worker, and when the buffer is full the record is dropped and counted in
// the logs rather than stalling a request.
type Sink struct {
	store   *Store
	records chan Record
	done    chan struct{}
	once    sync.Once
}

func NewSink(store *Store, bufferSize int) *Sink {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	s := &Sink{
		store:   store,
		records: make(chan Record, bufferSize),
		done:    make(chan struct{}),
	}
	go s.drain()
	return s
}

// Record enqueues a transaction, dropping it if the buffer is full.
func (s *Sink) Record(rec Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	select {
	case s.records <- rec:
	default:
		logger.Warn("analytics buffer full, dropping record",
			zap.String("session_id", rec.SessionID))
	}
}

func (s *Sink) drain() {
	defer close(s.done)
	for rec := range s.records {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.store.Insert(ctx, rec); err != nil {
			logger.Warn("analytics insert failed", zap.Error(err))
		}
		cancel()
	}
}

// Close stops accepting records and waits for the worker to flush the
// buffer.
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.records)
		<-s.done
	})
}
