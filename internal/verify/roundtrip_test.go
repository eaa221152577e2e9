package verify_test

import (
	def "UploadVerification/definitions"
	"UploadVerification/internal/metrics"
	"UploadVerification/internal/responder"
	"UploadVerification/internal/upload"
	"UploadVerification/internal/verify"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/blake2b"
)

func writeFiles(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatal(err)
	}
	return b
}

func newClient(t *testing.T, url string) *upload.Client {
	t.Helper()
	c, err := upload.New(url, 10*time.Second, nil)
	if err != nil {
		t.Fatalf("upload.New: %v", err)
	}
	return c
}

// corruptingServer hashes every uploaded file like the responder does, except
// that the first byte of the named file is flipped before hashing.
func corruptingServer(t *testing.T, corrupt string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mr, err := r.MultipartReader()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out := map[string]string{}
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			data, err := io.ReadAll(part)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if part.FileName() == corrupt && len(data) > 0 {
				data[0] ^= 0x01
			}
			sum := blake2b.Sum256(data)
			out[part.FileName()] = hex.EncodeToString(sum[:])
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
}

func TestRoundTrip_ResponderReportsFullSuccess(t *testing.T) {
	srv := httptest.NewServer(responder.New(nil, nil))
	defer srv.Close()

	dir := writeFiles(t, map[string][]byte{
		"a.txt":     []byte("hello"),
		"b.txt":     []byte("world"),
		"empty.bin": {},
		"chunk.bin": randomBytes(t, def.ChunkSize*3+5),
		"big.bin":   randomBytes(t, 3<<20),
	})

	stats := &metrics.Stats{}
	stats.Start()
	res, err := verify.Verify(context.Background(), newClient(t, srv.URL), dir, verify.Options{Workers: 3}, stats)
	stats.Stop()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if !res.OK {
		t.Fatalf("expected success, mismatches: %+v", res.Mismatches())
	}
	if len(res.Files) != 5 {
		t.Fatalf("expected 5 files, got %d", len(res.Files))
	}
	for _, f := range res.Files {
		if f.Local != f.Remote {
			t.Fatalf("%s: local %s remote %s", f.Name, f.Local, f.Remote)
		}
	}
	if stats.BytesUploaded != stats.TotalBytes {
		t.Fatalf("uploaded %d of %d bytes", stats.BytesUploaded, stats.TotalBytes)
	}
}

func TestRoundTrip_HelloWorldScenario(t *testing.T) {
	srv := httptest.NewServer(responder.New(nil, nil))
	defer srv.Close()

	dir := writeFiles(t, map[string][]byte{"a.txt": []byte("hello"), "b.txt": []byte("world")})

	res, err := verify.Verify(context.Background(), newClient(t, srv.URL), dir, verify.Options{}, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.OK || !res.Files[0].Match || !res.Files[1].Match {
		t.Fatalf("expected both files to match: %+v", res.Files)
	}

	helloSum := blake2b.Sum256([]byte("hello"))
	if res.Files[0].Name != "a.txt" || res.Files[0].Remote != hex.EncodeToString(helloSum[:]) {
		t.Fatalf("unexpected a.txt result: %+v", res.Files[0])
	}
}

func TestRoundTrip_SingleByteCorruption(t *testing.T) {
	files := map[string][]byte{
		"a.txt":   []byte("hello"),
		"b.txt":   []byte("world"),
		"c.bin":   randomBytes(t, 10_000),
		"d.large": bytes.Repeat([]byte{0x42}, 64<<10),
	}
	dir := writeFiles(t, files)

	for target := range files {
		target := target
		t.Run(target, func(t *testing.T) {
			srv := corruptingServer(t, target)
			defer srv.Close()

			res, err := verify.Verify(context.Background(), newClient(t, srv.URL), dir, verify.Options{Workers: 2}, nil)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if res.OK {
				t.Fatalf("expected overall failure when %s is corrupted", target)
			}
			for _, f := range res.Files {
				if want := f.Name != target; f.Match != want {
					t.Fatalf("%s: match=%v want %v", f.Name, f.Match, want)
				}
			}
		})
	}
}

func TestRoundTrip_EmptyDirectorySendsNothing(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res, err := verify.Verify(context.Background(), newClient(t, srv.URL), t.TempDir(), verify.Options{}, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.OK || !res.Empty {
		t.Fatalf("expected vacuous success, got %+v", res)
	}
	if hits != 0 {
		t.Fatalf("server was contacted %d times", hits)
	}
}
