package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken hashes a submit token for storage; raw tokens never touch
// the database.
func HashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}
