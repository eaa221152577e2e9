package main

import (
	"UploadVerification/internal/logging"
	"UploadVerification/internal/metrics"
	"UploadVerification/internal/progress"
	"UploadVerification/internal/upload"
	"UploadVerification/internal/verify"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const (
	exitOK       = 0
	exitMismatch = 1
	exitFatal    = 2
)

var errMismatch = errors.New("verification failed")

type options struct {
	endpoint   string
	dir        string
	workers    int
	timeout    time.Duration
	logLevel   string
	noProgress bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newCommand(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errMismatch):
		return exitMismatch
	default:
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return exitFatal
	}
}

func newCommand(stdout, stderr io.Writer) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "uploadcheck --endpoint <host:port> --dir <path>",
		Short: "Upload a directory in one batch and verify the server's BLAKE2b digests",
		Long: `Upload every regular file directly inside --dir to the upload endpoint as a
single multipart request, then hash the same files locally and compare each
digest with the one the server reported.

Exit status is 0 when every file matched, 1 when at least one file did not,
and 2 when the run could not complete (file, network or response errors).

Example:
  uploadcheck --endpoint 192.168.1.20:8080 --dir ./testdata
  uploadcheck --endpoint http://localhost:8080/upload --dir ./out --workers 4
`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), o, stdout, stderr)
		},
	}

	cmd.Flags().StringVarP(&o.endpoint, "endpoint", "e", "", "Upload endpoint, host:port or URL (default path /upload)")
	cmd.Flags().StringVarP(&o.dir, "dir", "d", "", "Directory whose files are uploaded")
	cmd.Flags().IntVarP(&o.workers, "workers", "w", 1, "Files hashed in parallel during verification")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 5*time.Minute, "Upload request timeout (0 disables)")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&o.noProgress, "no-progress", false, "Never draw progress bars")
	_ = cmd.MarkFlagRequired("endpoint")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

func run(ctx context.Context, o options, stdout, stderr io.Writer) error {
	log, err := logging.New("uploadcheck", o.logLevel, stderr)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	client, err := upload.New(o.endpoint, o.timeout, &log)
	if err != nil {
		return err
	}

	stats := &metrics.Stats{}
	opts := verify.Options{Workers: o.workers, Logger: &log}
	if f, ok := stdout.(*os.File); ok && !o.noProgress && progress.Enabled(f) {
		opts.NewBar = func(phase string, totalBytes int64) *progress.Bar {
			return progress.New(f, phase, totalBytes, snapshotFn(stats, phase))
		}
	}

	log.Info().Str("endpoint", client.Endpoint).Str("dir", o.dir).Msg("starting verification")

	stats.Start()
	res, err := verify.Verify(ctx, client, o.dir, opts, stats)
	stats.Stop()
	if err != nil {
		return err
	}

	report(stdout, res)
	metrics.Print(stdout, stats)

	if !res.OK {
		return errMismatch
	}
	return nil
}

func snapshotFn(stats *metrics.Stats, phase string) progress.SnapshotFn {
	return func() (p, total, ok, mismatches, missing, bytesDone int64) {
		p = atomic.LoadInt64(&stats.Processed)
		total = atomic.LoadInt64(&stats.Total)
		ok = atomic.LoadInt64(&stats.OK)
		mismatches = atomic.LoadInt64(&stats.Mismatches)
		missing = atomic.LoadInt64(&stats.Missing)
		if phase == "uploading" {
			bytesDone = atomic.LoadInt64(&stats.BytesUploaded)
		} else {
			bytesDone = atomic.LoadInt64(&stats.BytesHashed)
		}
		return p, total, ok, mismatches, missing, bytesDone
	}
}
