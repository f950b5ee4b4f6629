package pmb

import "math/rand/v2"

// TokenLen is the length of the identifier token appended to output stems.
const TokenLen = 8

const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewToken returns a random base-36 token of TokenLen characters. It only
// needs to avoid collisions between repeated conversions of the same name,
// so the process-wide pseudo-random source is enough.
func NewToken() string {
	var b [TokenLen]byte
	for i := range b {
		b[i] = tokenAlphabet[rand.IntN(len(tokenAlphabet))]
	}
	return string(b[:])
}

// IsToken reports whether s has the shape of a token.
func IsToken(s string) bool {
	if len(s) != TokenLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
