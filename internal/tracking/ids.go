// Package tracking issues the per-friend tracking token and access code,
// and gates the friend-facing view behind them.
//
// The 4-digit code is a deliberately weak second factor (10,000 values).
// The opaque URL token is the real gate; the code only keeps a leaked or
// forwarded link from being enough on its own.
package tracking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"time"
)

const (
	tokenAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	randomSegmentLen = 12

	codeMin   = 1000
	codeSpace = 9000
)

// random part, "-", then the base-36 unix-seconds creation time
var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9]{12}-[0-9a-z]{6,8}$`)

// NewToken returns a fresh tracking token such as "Ab3dEf7hIj9k-seehc0".
func NewToken(now time.Time) (string, error) {
	buf := make([]byte, randomSegmentLen)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate tracking token: %w", err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf) + "-" + strconv.FormatInt(now.Unix(), 36), nil
}

// ValidToken is a format check only; it lets obviously bad tokens be
// rejected without touching storage.
func ValidToken(s string) bool {
	return tokenPattern.MatchString(s)
}

// NewCode returns a uniform random access code in 1000..9999. Codes never
// start with zero, matching codes already stored by earlier versions.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("generate access code: %w", err)
	}
	return fmt.Sprintf("%04d", codeMin+n.Int64()), nil
}

// ValidCodeFormat reports whether s is exactly four ASCII digits.
func ValidCodeFormat(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
