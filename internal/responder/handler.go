package responder

import (
	def "UploadVerification/definitions"
	"UploadVerification/internal/verify"
	"encoding/json"
	"html"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Handler answers multipart uploads with the BLAKE2b-256 digest of every
// part sent under FieldName, keyed by the part's filename.
type Handler struct {
	log     *zerolog.Logger
	metrics *Metrics
	mux     *http.ServeMux
}

func New(log *zerolog.Logger, m *Metrics) *Handler {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	if m == nil {
		m = NewMetrics()
	}

	h := &Handler{log: log, metrics: m, mux: http.NewServeMux()}
	h.mux.HandleFunc(def.UploadPath, h.upload)
	h.mux.Handle("/metrics", m.Handler())
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.metrics.RequestDuration.Observe(time.Since(start).Seconds())
	}()

	log := h.log.With().
		Str("batch_id", r.Header.Get(def.BatchIDHeader)).
		Str("remote_addr", r.RemoteAddr).
		Logger()

	if r.Method != http.MethodPost {
		h.metrics.RequestsTotal.WithLabelValues("method_not_allowed").Inc()
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		h.metrics.RequestsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, "missing or invalid content type", http.StatusBadRequest)
		return
	}

	switch mediaType {
	case "multipart/form-data":
		h.multipartUpload(w, r, &log)
	case "application/x-www-form-urlencoded":
		h.echoForm(w, r, &log)
	default:
		h.metrics.RequestsTotal.WithLabelValues("unsupported_media_type").Inc()
		http.Error(w, "unsupported content type "+mediaType, http.StatusUnsupportedMediaType)
	}
}

func (h *Handler) multipartUpload(w http.ResponseWriter, r *http.Request, log *zerolog.Logger) {
	mr, err := r.MultipartReader()
	if err != nil {
		h.metrics.RequestsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	digests, err := HashParts(mr, func(name, digest string, n int64) {
		h.metrics.FilesReceivedTotal.Inc()
		h.metrics.BytesReceivedTotal.Add(float64(n))
		log.Info().Str("file", name).Int64("bytes", n).Str("hash", digest).Msg("file received")
	})
	if err != nil {
		h.metrics.RequestsTotal.WithLabelValues("bad_request").Inc()
		log.Warn().Err(err).Msg("multipart upload failed")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.metrics.RequestsTotal.WithLabelValues("ok").Inc()
	log.Info().Int("files", len(digests)).Msg("end of request")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(digests); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}

func (h *Handler) echoForm(w http.ResponseWriter, r *http.Request, log *zerolog.Logger) {
	if err := r.ParseForm(); err != nil {
		h.metrics.RequestsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.metrics.RequestsTotal.WithLabelValues("form").Inc()
	log.Debug().Msg("url-encoded form echoed")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w,
		`You entered this text:<br/> <textarea readonly cols="120" rows="20" wrap="soft">`+
			html.EscapeString(r.PostForm.Get("edit_box"))+
			`</textarea>`)
}

// HashParts reads every part of mr. Parts under FieldName are hashed as they
// stream in; other parts are drained and ignored. A repeated filename keeps
// the digest of its last part. onFile may be nil.
func HashParts(mr *multipart.Reader, onFile func(name, digest string, n int64)) (def.DigestMap, error) {
	digests := def.DigestMap{}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return digests, nil
		}
		if err != nil {
			return nil, err
		}

		if part.FormName() != def.FieldName {
			_, err = io.Copy(io.Discard, part)
			_ = part.Close()
			if err != nil {
				return nil, err
			}
			continue
		}

		name := part.FileName()
		digest, n, err := verify.ReaderDigestHex(part, nil)
		_ = part.Close()
		if err != nil {
			return nil, err
		}

		digests[name] = digest
		if onFile != nil {
			onFile(name, digest, n)
		}
	}
}
