package main

import (
	"UploadVerification/internal/logging"
	"UploadVerification/internal/responder"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		listen   string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "uploadresponder",
		Short: "Serve a multipart upload endpoint that answers with BLAKE2b digests",
		Long: `Serve POST /upload. Every multipart part sent under the file_to_upload field
is hashed with BLAKE2b-256 as it streams in, and the response is a JSON object
mapping each part's filename to its hex digest. Prometheus metrics are served
at /metrics.

Example:
  uploadresponder --listen :8080
`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logging.New("uploadresponder", logLevel, os.Stderr)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("listen %s: %w", listen, err)
			}
			return serve(cmd.Context(), ln, &log)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", ":8080", "Address to listen on")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

// serve runs the responder on ln until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, log *zerolog.Logger) error {
	srv := &http.Server{
		Handler:           responder.New(log, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Info().Str("addr", ln.Addr().String()).Msg("upload responder listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
