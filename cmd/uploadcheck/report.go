package main

import (
	"UploadVerification/internal/verify"
	"fmt"
	"io"
)

func report(w io.Writer, res *verify.Result) {
	if res.Empty {
		_, _ = fmt.Fprintf(w, "No files in %s; nothing to verify.\n", res.Dir)
		return
	}

	mismatches := res.Mismatches()
	for _, m := range mismatches {
		if m.Missing {
			_, _ = fmt.Fprintf(w, "MISSING  %s (no digest in server response)\n", m.Name)
			continue
		}
		_, _ = fmt.Fprintf(w, "MISMATCH %s\n  local:  %s\n  remote: %s\n", m.Name, m.Local, m.Remote)
	}
	for _, name := range res.Unexpected {
		_, _ = fmt.Fprintf(w, "server reported a file that was not uploaded: %s\n", name)
	}

	if res.OK {
		_, _ = fmt.Fprintf(w, "All files verified: %d file(s) match.\n", len(res.Files))
		return
	}
	_, _ = fmt.Fprintf(w, "Verification FAILED: %d of %d file(s) did not match.\n", len(mismatches), len(res.Files))
}
