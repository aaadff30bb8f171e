package album

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// How many codes we try before giving up. Collisions are possible by
	// design (no central counter), so creation retries on a duplicate key.
	codeAttempts = 10
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// NormalizeCode uppercases and trims user input before validation, matching
// what the code entry field does on the client.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code has the wire format of a join code:
// exactly 6 uppercase alphanumeric characters.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

func newCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))

	var builder strings.Builder
	builder.Grow(codeLength)

	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(codeAlphabet[n.Int64()])
	}

	return builder.String(), nil
}
