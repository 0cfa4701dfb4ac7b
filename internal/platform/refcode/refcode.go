// Package refcode generates the human-facing reference codes shown to citizens (e.g. COMP-M5X2K1AB-7QZD).
package refcode

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	Complaint = "COMP"
	Work      = "WORK"
	Event     = "EVT"
	Media     = "MEDIA"
	Scheme    = "SCHEME"
	Query     = "QUERY"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// New returns PREFIX-<base36 unix millis>-<4 random base36 chars>, upper-cased.
func New(prefix string, now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return prefix + "-" + ts + "-" + suffix(4)
}

func suffix(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		r, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = '0'
			continue
		}
		b[i] = alphabet[r.Int64()]
	}
	return string(b)
}
