package verify

import (
	def "UploadVerification/definitions"
	"UploadVerification/internal/batch"
	"UploadVerification/internal/metrics"
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Submitter uploads a batch and returns the digests the server computed.
type Submitter interface {
	Submit(ctx context.Context, entries []batch.FileEntry, onProgress func(n int64)) (def.DigestMap, error)
}

// Verify uploads every regular file in dir through sub and checks the
// returned digests against locally computed ones. IO, network and protocol
// failures abort the run; digest mismatches are recorded in the Result.
func Verify(ctx context.Context, sub Submitter, dir string, opts Options, stats *metrics.Stats) (*Result, error) {
	if stats == nil {
		stats = &metrics.Stats{}
	}
	log := opts.logger()

	b, err := batch.Enumerate(dir)
	if err != nil {
		return nil, err
	}
	atomic.StoreInt64(&stats.Total, int64(len(b.Entries)))
	atomic.StoreInt64(&stats.TotalBytes, b.TotalBytes)

	if len(b.Entries) == 0 {
		log.Warn().Str("dir", dir).Msg("no files to upload")
		return &Result{Dir: dir, OK: true, Empty: true}, nil
	}

	log.Info().
		Str("dir", dir).
		Int("files", len(b.Entries)).
		Int64("bytes", b.TotalBytes).
		Msg("uploading batch")

	bar := opts.bar("uploading", b.TotalBytes)
	remote, err := sub.Submit(ctx, b.Entries, func(n int64) {
		atomic.AddInt64(&stats.BytesUploaded, n)
		bar.AddBytes(n)
	})
	bar.Close()
	if err != nil {
		return nil, err
	}
	stats.MarkUploaded()

	log.Debug().Int("digests", len(remote)).Msg("upload response received")

	res, err := Compare(ctx, b.Entries, remote, opts, stats)
	if err != nil {
		return nil, err
	}
	res.Dir = dir
	return res, nil
}

// Compare hashes each entry locally and matches it against remote. Entries
// absent from remote are mismatches, not errors. Files are ordered as entries.
func Compare(ctx context.Context, entries []batch.FileEntry, remote def.DigestMap, opts Options, stats *metrics.Stats) (*Result, error) {
	if stats == nil {
		stats = &metrics.Stats{}
	}
	log := opts.logger()

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	var total int64
	for _, e := range entries {
		total += e.Length
	}
	bar := opts.bar("hashing", total)
	defer bar.Close()

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	files := make([]FileResult, len(entries))
	var (
		done     int64
		firstErr error
		errOnce  sync.Once
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()

		for i := range jobs {
			if ctx.Err() != nil {
				continue
			}
			fe := entries[i]

			var hashed int64
			local, err := FileDigestHex(fe.Path, func(n int64) {
				atomic.AddInt64(&stats.BytesHashed, n)
				hashed += n
				bar.AddBytes(n)
			})
			if err != nil {
				fail(err)
				continue
			}
			bar.AddBytes(fe.Length - hashed)

			remoteDigest, ok := remote.Lookup(fe.Name)
			fr := FileResult{Name: fe.Name, Local: local, Remote: remoteDigest, Missing: !ok}
			fr.Match = !fr.Missing && strings.EqualFold(fr.Local, strings.TrimSpace(fr.Remote))

			switch {
			case fr.Match:
				atomic.AddInt64(&stats.OK, 1)
			case fr.Missing:
				atomic.AddInt64(&stats.Missing, 1)
				atomic.AddInt64(&stats.Mismatches, 1)
				log.Warn().Str("file", fe.Name).Msg("server returned no digest")
			default:
				atomic.AddInt64(&stats.Mismatches, 1)
				log.Warn().
					Str("file", fe.Name).
					Str("local", fr.Local).
					Str("remote", fr.Remote).
					Msg("digest mismatch")
			}

			files[i] = fr
			atomic.AddInt64(&done, 1)
			atomic.AddInt64(&stats.Processed, 1)
		}
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}

	for i := range entries {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil && atomic.LoadInt64(&done) < int64(len(entries)) {
		return nil, err
	}

	res := &Result{Files: files, OK: true}
	for _, f := range files {
		if !f.Match {
			res.OK = false
		}
	}
	res.Unexpected = unexpectedNames(entries, remote)
	atomic.StoreInt64(&stats.Unexpected, int64(len(res.Unexpected)))
	for _, name := range res.Unexpected {
		log.Info().Str("file", name).Msg("server reported a file that was not uploaded")
	}

	return res, nil
}

func unexpectedNames(entries []batch.FileEntry, remote def.DigestMap) []string {
	local := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		local[e.Name] = struct{}{}
	}

	var out []string
	for name := range remote {
		if _, ok := local[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
