package output_storage

import (
	"errors"
	"sync"
)

// ErrBroadcasterClosed is returned by Subscribe after Close.
var ErrBroadcasterClosed = errors.New("broadcaster is closed")

// Broadcaster fans published values out to subscribers. It never blocks a
// publisher: each subscriber channel holds one value and a slow subscriber only
// ever sees the latest one.
type Broadcaster[T any] struct {
	inboxMu     sync.RWMutex
	inbox       chan T
	inboxClosed bool

	mu          sync.Mutex
	subscribers map[chan T]struct{}
	closed      bool
}

// NewBroadcaster starts a broadcaster. Close stops it.
func NewBroadcaster[T any]() *Broadcaster[T] {
	b := &Broadcaster[T]{
		inbox:       make(chan T, 1),
		subscribers: make(map[chan T]struct{}),
	}
	go b.run()
	return b
}

func (b *Broadcaster[T]) run() {
	for msg := range b.inbox {
		// Delivery never blocks, so it can run under the lock that guards
		// Unsubscribe from closing a channel mid-send.
		b.mu.Lock()
		for sub := range b.subscribers {
			offerLatest(sub, msg)
		}
		b.mu.Unlock()
	}

	b.mu.Lock()
	for sub := range b.subscribers {
		close(sub)
	}
	b.subscribers = nil
	b.closed = true
	b.mu.Unlock()
	logger.Debug("broadcaster stopped")
}

// offerLatest sends msg to ch, dropping the queued value if ch is full.
func offerLatest[T any](ch chan T, msg T) {
	for {
		select {
		case ch <- msg:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Close stops the broadcaster and closes every subscriber channel once pending
// values are delivered. Later calls do nothing.
func (b *Broadcaster[T]) Close() {
	b.inboxMu.Lock()
	defer b.inboxMu.Unlock()
	if b.inboxClosed {
		return
	}
	b.inboxClosed = true
	close(b.inbox)
}

// Subscribe registers a new subscriber channel with a buffer of one.
func (b *Broadcaster[T]) Subscribe() (chan T, error) {
	ch := make(chan T, 1)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBroadcasterClosed
	}
	b.subscribers[ch] = struct{}{}
	return ch, nil
}

// Unsubscribe removes ch and closes it.
func (b *Broadcaster[T]) Unsubscribe(ch chan T) {
	b.mu.Lock()
	_, ok := b.subscribers[ch]
	delete(b.subscribers, ch)
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Publish queues msg for every subscriber. If the previous value is still
// queued it is replaced. Publishing after Close is a no-op.
func (b *Broadcaster[T]) Publish(msg T) {
	b.inboxMu.RLock()
	defer b.inboxMu.RUnlock()
	if b.inboxClosed {
		return
	}
	offerLatest(b.inbox, msg)
}
