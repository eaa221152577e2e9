package definitions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

const (
	// FieldName is the multipart field every uploaded file is attached under.
	FieldName = "file_to_upload"
	// UploadPath is used when the endpoint URL carries no path.
	UploadPath = "/upload"
	// DigestSize is the BLAKE2b output length in bytes shared with the server.
	DigestSize = 32
	// ChunkSize is the read size used when hashing.
	ChunkSize = 4096
	// BatchIDHeader carries a per-request id so client and server logs line up.
	BatchIDHeader = "X-Batch-Id"
)

// DigestMap maps an uploaded file name to the hex digest the server computed.
type DigestMap map[string]string

func (m *DigestMap) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return fmt.Errorf("digest map: expected a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("digest map: expected a JSON object")
	}

	out := DigestMap{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("digest map: unexpected key %v", tok)
		}

		tok, err = dec.Token()
		if err != nil {
			return err
		}
		digest, ok := tok.(string)
		if !ok {
			return fmt.Errorf("digest map: value for %q is not a string", name)
		}
		out[name] = digest
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("digest map: trailing data after object")
	}

	*m = out
	return nil
}

func (m DigestMap) Lookup(name string) (string, bool) {
	d, ok := m[name]
	return d, ok
}
