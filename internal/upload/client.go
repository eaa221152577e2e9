package upload

import (
	def "UploadVerification/definitions"
	"UploadVerification/internal/batch"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxResponseBytes bounds the digest map we are willing to read.
const maxResponseBytes = 16 << 20

type Client struct {
	Endpoint   string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// New returns a client posting to endpoint. A zero timeout means none.
func New(endpoint string, timeout time.Duration, log *zerolog.Logger) (*Client, error) {
	u, err := NormalizeEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Client{
		Endpoint:   u,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     log,
	}, nil
}

// NormalizeEndpoint accepts "host:port" or a full URL and fills in the
// scheme and the default upload path when they are absent.
func NormalizeEndpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("endpoint must be specified")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid endpoint %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q: missing host", raw)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = def.UploadPath
	}
	return u.String(), nil
}

// Submit posts every entry as one multipart request and returns the digest
// map from the response. Files are streamed one at a time; onProgress
// receives the number of file bytes written to the request body.
func (c *Client) Submit(ctx context.Context, entries []batch.FileEntry, onProgress func(n int64)) (def.DigestMap, error) {
	log := c.logger()
	batchID := uuid.NewString()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	writeErr := make(chan error, 1)
	go func() {
		err := writeParts(mw, entries, onProgress)
		_ = pw.CloseWithError(err)
		writeErr <- err
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		<-writeErr
		return nil, def.NetworkError("build request", c.Endpoint, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(def.BatchIDHeader, batchID)

	log.Debug().
		Str("batch_id", batchID).
		Str("endpoint", c.Endpoint).
		Int("files", len(entries)).
		Msg("posting batch")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		_ = pr.CloseWithError(err)
		if werr := <-writeErr; errors.Is(werr, def.ErrIO) {
			return nil, werr
		}
		return nil, def.NetworkError("post", c.Endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, rerr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))

	// The server may answer before draining the body; stop the writer either way.
	_ = pr.Close()
	if werr := <-writeErr; errors.Is(werr, def.ErrIO) {
		return nil, werr
	}

	if rerr != nil {
		return nil, def.NetworkError("read response", c.Endpoint, rerr)
	}

	log.Debug().
		Str("batch_id", batchID).
		Int("status", resp.StatusCode).
		Int("body_bytes", len(body)).
		Msg("upload response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, def.ProtocolError("post", c.Endpoint, fmt.Errorf("unexpected status %s", resp.Status))
	}
	if len(body) > maxResponseBytes {
		return nil, def.ProtocolError("decode response", c.Endpoint, fmt.Errorf("response larger than %d bytes", maxResponseBytes))
	}

	var digests def.DigestMap
	if err := json.Unmarshal(body, &digests); err != nil {
		return nil, def.ProtocolError("decode response", c.Endpoint, err)
	}
	return digests, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

func writeParts(mw *multipart.Writer, entries []batch.FileEntry, onProgress func(n int64)) error {
	buf := make([]byte, def.ChunkSize)
	for _, e := range entries {
		if err := writePart(mw, e, buf, onProgress); err != nil {
			return err
		}
	}
	return mw.Close()
}

func writePart(mw *multipart.Writer, e batch.FileEntry, buf []byte, onProgress func(n int64)) error {
	f, err := os.Open(e.Path) // #nosec G304
	if err != nil {
		return def.IOError("open", e.Path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	part, err := mw.CreateFormFile(def.FieldName, e.Name)
	if err != nil {
		return err
	}

	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if _, werr := part.Write(buf[:n]); werr != nil {
				return werr
			}
			if onProgress != nil {
				onProgress(int64(n))
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return def.IOError("read", e.Path, rerr)
		}
	}
}
