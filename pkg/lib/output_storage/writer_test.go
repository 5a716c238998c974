package output_storage

import (
	"errors"
	"io"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestWrite_CopiesInput(t *testing.T) {
	s := New()
	defer s.Close()

	buf := []byte("abc")
	if n, err := s.Write(buf); n != 3 || err != nil {
		t.Fatalf("Write = %d, %v", n, err)
	}
	buf[0] = 'z'
	if got := s.String(); got != "abc" {
		t.Fatalf("storage kept caller's buffer: %q", got)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
}

type oneByteReader struct{ r io.Reader }

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return o.r.Read(p)
}

func TestReadFrom_PumpsUntilEOF(t *testing.T) {
	s := New()
	ch := s.Subscribe(16)

	n, err := s.ReadFrom(oneByteReader{strings.NewReader("hello")})
	if err != nil || n != 5 {
		t.Fatalf("ReadFrom = %d, %v", n, err)
	}
	s.Close()

	if got := drain(ch); got != "hello" {
		t.Fatalf("subscriber got %q", got)
	}
}

func TestReadFrom_SmallReadsStaySmall(t *testing.T) {
	const reads = 2000
	s := New()
	defer s.Close()

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	n, err := s.ReadFrom(oneByteReader{strings.NewReader(strings.Repeat("x", reads))})
	if err != nil || n != reads {
		t.Fatalf("ReadFrom = %d, %v", n, err)
	}

	runtime.GC()
	runtime.ReadMemStats(&after)
	if s.Len() != reads {
		t.Fatalf("Len = %d, want %d", s.Len(), reads)
	}
	// A few hundred bytes of bookkeeping per chunk at most, never a read buffer.
	var growth int64
	if after.HeapAlloc > before.HeapAlloc {
		growth = int64(after.HeapAlloc - before.HeapAlloc)
	}
	if limit := int64(reads * 512); growth > limit {
		t.Fatalf("heap grew by %d bytes for %d stored bytes (limit %d)", growth, reads, limit)
	}
	runtime.KeepAlive(s)
}

func TestReadFrom_ClosedEndpointIsEndOfStream(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe failed: %v", err)
	}
	defer w.Close()

	s := New()
	defer s.Close()
	done := make(chan error, 1)
	go func() {
		_, err := s.ReadFrom(r)
		done <- err
	}()

	if _, err := w.Write([]byte("partial")); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for s.Len() < int64(len("partial")) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	_ = r.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ReadFrom returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("ReadFrom did not return after the endpoint closed")
	}
	if got := s.String(); got != "partial" {
		t.Fatalf("got %q", got)
	}
}

type failingReader struct{}

var errRead = errors.New("read failed")

func (failingReader) Read([]byte) (int, error) { return 0, errRead }

func TestReadFrom_PropagatesErrors(t *testing.T) {
	s := New()
	defer s.Close()
	if _, err := s.ReadFrom(failingReader{}); !errors.Is(err, errRead) {
		t.Fatalf("expected errRead, got %v", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	s := New()
	s.Append([]byte("x"))
	s.Close()
	s.Close()
	// Appends after Close are stored but wake nobody.
	s.Append([]byte("y"))
	if got := s.String(); got != "xy" {
		t.Fatalf("got %q", got)
	}
}

func TestSubscribe_LiveSubscriberGetsTailBeforeClose(t *testing.T) {
	s := New()
	ch := s.Subscribe(1)
	for i := 0; i < 100; i++ {
		s.Append([]byte{'a'})
	}
	s.Close()

	done := make(chan string, 1)
	go func() { done <- drain(ch) }()
	select {
	case got := <-done:
		if got != strings.Repeat("a", 100) {
			t.Fatalf("got %d bytes, want 100", len(got))
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscriber did not finish")
	}
}
