package audit

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashEmail returns a keyed BLAKE2b-256 digest of the normalized email. Keys
// longer than 64 bytes are truncated to the BLAKE2b maximum.
func HashEmail(key []byte, email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		// unreachable: key length is bounded above
		panic(err)
	}
	_, _ = h.Write([]byte(email))
	return hex.EncodeToString(h.Sum(nil))
}
