package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

type SnapshotFn func() (processed, total, ok, mismatches, missing, bytesDone int64)

type Bar struct {
	bar  *progressbar.ProgressBar
	ch   chan int64
	done chan struct{}
	stop chan struct{}

	phase  string
	snap   SnapshotFn
	lastB  int64
	lastAt time.Time
}

// Enabled reports whether f is a terminal worth drawing a bar on.
func Enabled(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// New starts a bar for one phase ("uploading", "hashing") of totalBytes.
func New(w io.Writer, phase string, totalBytes int64, snap SnapshotFn) *Bar {
	b := &Bar{
		ch:     make(chan int64, 16384),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
		phase:  phase,
		snap:   snap,
		lastAt: time.Now(),
	}

	b.bar = progressbar.NewOptions64(
		totalBytes,
		progressbar.OptionSetWriter(w),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetDescription(phase),
		progressbar.OptionShowCount(),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(120*time.Millisecond),
	)

	_ = b.bar.RenderBlank()
	go func() {
		defer close(b.done)
		for n := range b.ch {
			_ = b.bar.Add64(n)
		}
		_ = b.bar.Finish()
	}()

	go func() {
		t := time.NewTicker(1 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				b.updateDescription()
			case <-b.stop:
				return
			}
		}
	}()

	return b
}

func (b *Bar) AddBytes(n int64) {
	if b == nil || n <= 0 {
		return
	}
	b.ch <- n
}

func (b *Bar) Close() {
	if b == nil {
		return
	}
	close(b.stop)
	close(b.ch)
	<-b.done
}

func (b *Bar) updateDescription() {
	if b.snap == nil {
		return
	}
	p, total, ok, mismatches, missing, bytesDone := b.snap()

	now := time.Now()
	dt := now.Sub(b.lastAt).Seconds()

	mbps := 0.0
	if dt > 0 {
		mbps = (float64(bytesDone-b.lastB) / 1_000_000.0) / dt
	}

	b.lastB = bytesDone
	b.lastAt = now

	desc := fmt.Sprintf("%s %d/%d files | ok=%d mismatches=%d missing=%d | %.1f MB/s",
		b.phase, p, total, ok, mismatches, missing, mbps,
	)
	b.bar.Describe(desc)
}
