// Package roomcode generates short, human-shareable room identifiers.
// Uniqueness is best-effort: the alphabet and default length give enough
// entropy that collisions among live rooms are acceptable.
package roomcode

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet omits lookalike characters (0/O, 1/I/L) so codes survive
// being read aloud.
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// DefaultLength of a generated code.
const DefaultLength = 6

// New returns a random code of the given length drawn from an unbiased
// alphabet. Lengths below 1 fall back to DefaultLength.
func New(length int) (string, error) {
	if length < 1 {
		length = DefaultLength
	}

	// Rejection sampling keeps the draw unbiased: a plain modulo would
	// favor the low end of the alphabet.
	limit := 256 - 256%len(codeAlphabet)
	code := make([]byte, 0, length)
	buf := make([]byte, 1)
	for len(code) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading randomness: %w", err)
		}
		if int(buf[0]) >= limit {
			continue
		}
		code = append(code, codeAlphabet[int(buf[0])%len(codeAlphabet)])
	}
	return string(code), nil
}
