package verify

import (
	"UploadVerification/internal/progress"

	"github.com/rs/zerolog"
)

// FileResult is the outcome for one file of the batch. Missing means the
// server reported no digest for it; Remote is empty in that case.
type FileResult struct {
	Name    string
	Local   string
	Remote  string
	Match   bool
	Missing bool
}

// Result is the aggregate outcome of a run. OK holds iff every file matched;
// an empty batch is OK with Empty set.
type Result struct {
	Dir        string
	Files      []FileResult
	Unexpected []string
	OK         bool
	Empty      bool
}

func (r *Result) Mismatches() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if !f.Match {
			out = append(out, f)
		}
	}
	return out
}

type Options struct {
	Workers int
	Logger  *zerolog.Logger
	// NewBar, when set, is called once per phase ("uploading", "hashing").
	NewBar func(phase string, totalBytes int64) *progress.Bar
}

func (o Options) logger() *zerolog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

func (o Options) bar(phase string, totalBytes int64) *progress.Bar {
	if o.NewBar == nil {
		return nil
	}
	return o.NewBar(phase, totalBytes)
}
