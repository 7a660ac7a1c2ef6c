package hashutil

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// ContentHash is the hex blake2b-256 digest of text.
func ContentHash(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
