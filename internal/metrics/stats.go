package metrics

import "time"

type Stats struct {
	TotalBytes int64

	Total      int64
	Processed  int64
	OK         int64
	Mismatches int64
	Missing    int64
	Unexpected int64

	BytesUploaded int64
	BytesHashed   int64

	Started  time.Time
	Uploaded time.Time
	Finished time.Time
}

func (s *Stats) Start()        { s.Started = time.Now() }
func (s *Stats) MarkUploaded() { s.Uploaded = time.Now() }
func (s *Stats) Stop()         { s.Finished = time.Now() }
func (s *Stats) Duration() time.Duration {
	if s.Finished.IsZero() {
		return time.Since(s.Started)
	}
	return s.Finished.Sub(s.Started)
}

// UploadDuration is zero until MarkUploaded has been called.
func (s *Stats) UploadDuration() time.Duration {
	if s.Uploaded.IsZero() {
		return 0
	}
	return s.Uploaded.Sub(s.Started)
}
