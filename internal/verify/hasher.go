package verify

import (
	def "UploadVerification/definitions"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

const progressFlushBytes = 1 << 20 // 1 MiB

func newHasher() hash.Hash {
	// Only fails for a bad size or an oversized key.
	h, err := blake2b.New(def.DigestSize, nil)
	if err != nil {
		panic(err)
	}
	return h
}

// ReaderDigestHex hashes r to EOF in ChunkSize reads and returns the lowercase
// hex BLAKE2b-256 digest together with the number of bytes consumed.
func ReaderDigestHex(r io.Reader, onProgress func(n int64)) (string, int64, error) {
	h := newHasher()
	buf := make([]byte, def.ChunkSize)

	var total, pending int64
	flush := func() {
		if pending > 0 && onProgress != nil {
			onProgress(pending)
			pending = 0
		}
	}

	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n]) // hash.Hash writes never fail
			total += int64(n)
			pending += int64(n)
			if pending >= progressFlushBytes {
				flush()
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			flush()
			return "", total, rerr
		}
	}
	flush()

	return hex.EncodeToString(h.Sum(nil)), total, nil
}

// FileDigestHex opens path, hashes it and closes it again, also on failure.
func FileDigestHex(path string, onProgress func(n int64)) (string, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return "", def.IOError("open", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	digest, _, err := ReaderDigestHex(f, onProgress)
	if err != nil {
		return "", def.IOError("read", path, err)
	}
	return digest, nil
}
