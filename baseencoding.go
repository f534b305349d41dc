package go_i2cp

import (
	"crypto/sha256"
	"strings"

	"github.com/go-i2p/common/base32"
	"github.com/go-i2p/common/base64"
)

// Component B: base-encoding utilities shared by the destination codec (D)
// and the session-bridge client (H)'s name-lookup passthrough rule.

// EncodeBase64 renders data using I2P's custom alphabet (- for +, ~ for /).
func EncodeBase64(data []byte) string {
	return base64.EncodeToString(data)
}

// DecodeBase64 reverses EncodeBase64, padding to a multiple of 4 first since
// many stored destination strings elide their trailing '=' padding.
func DecodeBase64(s string) ([]byte, error) {
	return base64.DecodeString(padBase64(s))
}

// padBase64 pads s with '=' to a multiple of 4 characters.
func padBase64(s string) string {
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return s
}

// ShortNameForBytes computes the <base32(sha256(bytes))>.b32.i2p short name
// for a destination's canonical byte form.
func ShortNameForBytes(destBytes []byte) string {
	digest := sha256.Sum256(destBytes)
	return strings.ToLower(base32.EncodeToString(digest[:])) + ".b32.i2p"
}
