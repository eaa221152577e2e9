package progress

import (
	"bytes"
	"sync"
	"testing"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func TestBar_AddAndClose(t *testing.T) {
	var out lockedBuffer
	b := New(&out, "hashing", 100, func() (int64, int64, int64, int64, int64, int64) {
		return 1, 2, 1, 0, 0, 50
	})

	b.AddBytes(40)
	b.AddBytes(0)
	b.AddBytes(-5)
	b.AddBytes(60)
	b.Close()

	if got := b.bar.State().CurrentNum; got != 100 {
		t.Fatalf("bar position mismatch: got %d want 100", got)
	}

	b.updateDescription()
	if b.lastB != 50 {
		t.Fatalf("lastB mismatch: got %d want 50", b.lastB)
	}
}

func TestBar_NilIsNoop(t *testing.T) {
	var b *Bar
	b.AddBytes(10)
	b.Close()
}
