package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const urlSafeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// GenerateNumericCode returns a uniformly random code with exactly digits digits
// (no leading zero), e.g. 6 digits yields 100000..999999.
func GenerateNumericCode(digits int) (int, error) {
	if digits <= 0 || digits > 9 {
		return 0, fmt.Errorf("digits must be between 1 and 9")
	}
	low := pow10(digits - 1)
	span := pow10(digits) - low
	n, err := rand.Int(rand.Reader, big.NewInt(int64(span)))
	if err != nil {
		return 0, fmt.Errorf("generate code: %w", err)
	}
	return low + int(n.Int64()), nil
}

// GenerateReference returns prefix followed by length URL-safe random characters.
func GenerateReference(prefix string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	var b strings.Builder
	b.Grow(len(prefix) + length)
	b.WriteString(prefix)
	max := big.NewInt(int64(len(urlSafeCharset)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate reference: %w", err)
		}
		b.WriteByte(urlSafeCharset[n.Int64()])
	}
	return b.String(), nil
}

func pow10(n int) int {
	out := 1
	for i := 0; i < n; i++ {
		out *= 10
	}
	return out
}
