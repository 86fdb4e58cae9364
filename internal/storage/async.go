package storage

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

var ErrWriterClosed = errors.New("async writer closed")

const asyncSaveTimeout = 5 * time.Second

type asyncWrite struct {
	owner, key string
	value      []byte
	seq        uint64
}

type pendingValue struct {
	value []byte
	seq   uint64
}

// AsyncWriter makes a Backend write-behind. Save returns once the value is
// queued; a single goroutine applies writes in order. Loads see queued values
// before they reach the backend. Failed writes are logged and dropped.
type AsyncWriter struct {
	backend Backend
	queue   chan asyncWrite

	closeMu sync.RWMutex
	closed  bool

	mu      sync.Mutex
	seq     uint64
	pending map[string]pendingValue

	done chan struct{}
}

func NewAsyncWriter(backend Backend, buffer int) *AsyncWriter {
	if buffer <= 0 {
		buffer = 256
	}
	w := &AsyncWriter{
		backend: backend,
		queue:   make(chan asyncWrite, buffer),
		pending: make(map[string]pendingValue),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func pendingKey(owner, key string) string {
	return owner + "\x00" + key
}

func (w *AsyncWriter) Load(ctx context.Context, owner, key string) ([]byte, error) {
	w.mu.Lock()
	p, ok := w.pending[pendingKey(owner, key)]
	w.mu.Unlock()
	if ok {
		out := make([]byte, len(p.value))
		copy(out, p.value)
		return out, nil
	}
	return w.backend.Load(ctx, owner, key)
}

func (w *AsyncWriter) Save(_ context.Context, owner, key string, value []byte) error {
	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	if w.closed {
		return ErrWriterClosed
	}

	v := make([]byte, len(value))
	copy(v, value)

	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.pending[pendingKey(owner, key)] = pendingValue{value: v, seq: seq}
	w.mu.Unlock()

	w.queue <- asyncWrite{owner: owner, key: key, value: v, seq: seq}
	return nil
}

func (w *AsyncWriter) run() {
	defer close(w.done)
	for write := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), asyncSaveTimeout)
		if err := w.backend.Save(ctx, write.owner, write.key, write.value); err != nil {
			log.Printf("[storage] write-behind failed for %s/%s: %v", write.owner, write.key, err)
		}
		cancel()

		w.mu.Lock()
		k := pendingKey(write.owner, write.key)
		if p, ok := w.pending[k]; ok && p.seq == write.seq {
			delete(w.pending, k)
		}
		w.mu.Unlock()
	}
}

// Close stops accepting writes and waits for queued ones to finish.
func (w *AsyncWriter) Close() {
	w.closeMu.Lock()
	if w.closed {
		w.closeMu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	close(w.queue)
	w.closeMu.Unlock()
	<-w.done
}
