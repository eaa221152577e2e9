package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
)

type Snapshot struct {
	DurationMs       int64
	UploadDurationMs int64
	Total            int64
	Processed        int64
	OK               int64
	Mismatches       int64
	Missing          int64
	Unexpected       int64
	BytesUploaded    int64
	BytesHashed      int64
	TotalBytes       int64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		DurationMs:       s.Duration().Milliseconds(),
		UploadDurationMs: s.UploadDuration().Milliseconds(),
		Total:            atomic.LoadInt64(&s.Total),
		Processed:        atomic.LoadInt64(&s.Processed),
		OK:               atomic.LoadInt64(&s.OK),
		Mismatches:       atomic.LoadInt64(&s.Mismatches),
		Missing:          atomic.LoadInt64(&s.Missing),
		Unexpected:       atomic.LoadInt64(&s.Unexpected),
		BytesUploaded:    atomic.LoadInt64(&s.BytesUploaded),
		BytesHashed:      atomic.LoadInt64(&s.BytesHashed),
		TotalBytes:       atomic.LoadInt64(&s.TotalBytes),
	}
}

func Print(w io.Writer, s *Stats) {
	snap := s.Snapshot()

	fmt.Fprintln(w, "--- stats ---")
	fmt.Fprintln(w, "duration_ms:", snap.DurationMs)
	fmt.Fprintln(w, "upload_duration_ms:", snap.UploadDurationMs)
	fmt.Fprintln(w, "total:", snap.Total)
	fmt.Fprintln(w, "processed:", snap.Processed)
	fmt.Fprintln(w, "ok:", snap.OK)
	fmt.Fprintln(w, "mismatches:", snap.Mismatches)
	fmt.Fprintln(w, "missing:", snap.Missing)
	fmt.Fprintln(w, "unexpected:", snap.Unexpected)
	fmt.Fprintln(w, "bytes_uploaded:", snap.BytesUploaded)
	fmt.Fprintln(w, "bytes_hashed:", snap.BytesHashed)
	fmt.Fprintln(w, "total_bytes:", snap.TotalBytes)

	if snap.UploadDurationMs > 0 {
		secs := float64(snap.UploadDurationMs) / 1000.0
		bps := float64(snap.BytesUploaded) / secs
		fmt.Fprintln(w, "upload_mb_per_sec:", bps/1_000_000.0)
	}
}
