package object

import (
	"encoding/hex"

	"github.com/pjbgf/sha1cd"
)

// HashSize is the length of a hex-encoded object hash.
const HashSize = 40

// HashBytes computes the SHA-1 of data and returns it as a lowercase
// hex-encoded Hash. The digest covers the content only, so identical bytes
// always map to the same object.
func HashBytes(data []byte) Hash {
	h := sha1cd.New()
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// IsHash reports whether s looks like a full object hash: exactly 40 hex
// digits.
func IsHash(s string) bool {
	if len(s) != HashSize {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
