package querycache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Options are the request flags that participate in the cache key. Two
// requests share a fingerprint only if they would deterministically produce
// the same cached response, so the execute flag and the dialect target are
// part of the digest and a dialect change never cross-contaminates entries.
type Options struct {
	Execute bool
	Dialect string
}

// Fingerprint computes the deterministic cache key for a resolved utterance
// and its options. The field order is fixed, so the digest is independent of
// how callers assembled the options.
func Fingerprint(resolvedUtterance string, opts Options) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(resolvedUtterance)), " ")

	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write([]byte{0})
	h.Write([]byte("execute=" + strconv.FormatBool(opts.Execute)))
	h.Write([]byte{0})
	h.Write([]byte("dialect=" + strings.ToLower(opts.Dialect)))

	return hex.EncodeToString(h.Sum(nil))
}
