package output_storage

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var logger = zap.NewNop()

// SetLogger installs l for the package. A nil l silences logging.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l.Named("output_storage")
}

// chunk is one element of the append-only list. next is published atomically so
// readers never take a lock.
type chunk struct {
	data []byte
	next atomic.Pointer[chunk]
}

// OutputStorage records everything a child wrote to one stream as an append-only
// list of chunks, and replays it to any number of subscribers, early or late.
// Appends are serialized; reads and subscriptions are lock-free.
type OutputStorage struct {
	head *chunk // sentinel, never carries data

	appendMu sync.Mutex
	tail     *chunk
	size     atomic.Int64

	notify *Broadcaster[struct{}]
}

// New returns an empty storage that accepts appends until Close.
func New() *OutputStorage {
	sentinel := &chunk{}
	return &OutputStorage{
		head:   sentinel,
		tail:   sentinel,
		notify: NewBroadcaster[struct{}](),
	}
}

// Close marks the end of the stream. Live subscriptions drain what is stored and
// then their channels close.
func (s *OutputStorage) Close() {
	if s == nil {
		return
	}
	s.notify.Close()
}

// Append stores data as-is. Callers that reuse the slice must pass a copy.
func (s *OutputStorage) Append(data []byte) {
	if s == nil {
		return
	}

	next := &chunk{data: data}
	s.appendMu.Lock()
	s.tail.next.Store(next)
	s.tail = next
	s.appendMu.Unlock()
	s.size.Add(int64(len(data)))

	logger.Debug("appended", zap.Int("bytes", len(data)))
	s.notify.Publish(struct{}{})
}

// Len returns the number of bytes stored so far.
func (s *OutputStorage) Len() int64 {
	if s == nil {
		return 0
	}
	return s.size.Load()
}

// Subscribe returns a channel that yields every chunk from the beginning and
// closes once the storage is closed and fully delivered. capacity sizes the
// channel buffer.
func (s *OutputStorage) Subscribe(capacity int) <-chan []byte {
	ch := make(chan []byte, capacity)
	wake, err := s.notify.Subscribe()
	if err != nil {
		// Already closed: nothing new can arrive, replay and finish.
		go s.replay(ch, nil)
	} else {
		go s.replay(ch, wake)
	}
	return ch
}

// replay walks the list into ch. With a nil wake channel it stops at the current
// end; otherwise it sleeps on wake until the broadcaster closes it.
func (s *OutputStorage) replay(ch chan<- []byte, wake <-chan struct{}) {
	id := uuid.New()
	logger.Debug("subscriber started", zap.Stringer("subscriber", id), zap.Bool("live", wake != nil))
	defer close(ch)

	prev := s.head
	for {
		cur := prev.next.Load()
		if cur != nil {
			ch <- cur.data
			prev = cur
			continue
		}
		if wake == nil {
			logger.Debug("subscriber finished", zap.Stringer("subscriber", id))
			return
		}
		if _, ok := <-wake; !ok {
			// Closed: deliver whatever landed before the close, then stop.
			wake = nil
		}
	}
}

// ForEach calls iter for each stored chunk in order until iter returns false.
func (s *OutputStorage) ForEach(iter func([]byte) bool) {
	if s == nil || iter == nil {
		return
	}
	for cur := s.head.next.Load(); cur != nil; cur = cur.next.Load() {
		if !iter(cur.data) {
			return
		}
	}
}

// Bytes returns a concatenated copy of everything stored so far.
func (s *OutputStorage) Bytes() []byte {
	out := make([]byte, 0, s.Len())
	s.ForEach(func(b []byte) bool {
		out = append(out, b...)
		return true
	})
	return out
}

func (s *OutputStorage) String() string {
	return string(s.Bytes())
}
