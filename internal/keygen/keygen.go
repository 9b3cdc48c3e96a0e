// Package keygen produces unique, lexicographically time-ordered entity
// identifiers. Every persisted entity (user, task, category) gets its ID
// from a Generator, tagged with a one-character entity kind.
package keygen

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
)

// alphabet is the base62 symbol set: digits, uppercase, then lowercase.
// The ordering matters: encoded values sort lexicographically in the same
// order as the numbers they encode (for equal lengths).
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	base = int64(len(alphabet))

	// MaxKeyLength is the upper bound on generated identifiers:
	// 3 (prefix) + 1 (kind) + base62 millisecond timestamp + counter.
	MaxKeyLength = 26

	// DefaultPrefix is used when no prefix is configured.
	DefaultPrefix = "ABC"

	maxPrefixLength = 3
)

// Entity kind tags embedded in generated keys.
const (
	KindUser     = "U"
	KindTask     = "T"
	KindCategory = "C"
)

// ErrInvalidKind is returned when the kind tag is not exactly one
// base62 character.
var ErrInvalidKind = errors.New("kind must be exactly one base62 character")

// Generator issues unique identifiers for a single process. The shared
// millisecond/counter pair is guarded by a mutex; two calls can never
// observe the same (timestamp, counter) state. Uniqueness across processes
// is best-effort only: independent generators restart their counters at
// zero, so a same-millisecond collision between processes is possible.
type Generator struct {
	prefix string

	mu      sync.Mutex
	lastMS  int64
	counter int64
	nowMS   func() int64
}

// NewGenerator creates a Generator with the given environment prefix.
// The prefix is sanitized: non-base62 characters are dropped and the
// result is truncated to three characters. An empty prefix is allowed.
func NewGenerator(prefix string) *Generator {
	return &Generator{
		prefix: SanitizePrefix(prefix),
		nowMS:  func() int64 { return time.Now().UnixMilli() },
	}
}

// SanitizePrefix filters the raw prefix down to at most three base62
// characters, preserving their order.
func SanitizePrefix(raw string) string {
	var b strings.Builder
	for _, ch := range strings.TrimSpace(raw) {
		if b.Len() == maxPrefixLength {
			break
		}
		// The rune must be tested as a rune: truncating a multi-byte
		// rune to its low byte can alias onto a valid ASCII character.
		if ch <= unicode.MaxASCII && isBase62(byte(ch)) {
			b.WriteByte(byte(ch))
		}
	}
	return b.String()
}

// Prefix returns the sanitized prefix this generator stamps on every key.
func (g *Generator) Prefix() string {
	return g.prefix
}

// Generate returns a new identifier for the given entity kind. The kind
// must be exactly one base62 character. The result is
// prefix + kind + base62(unix_ms) + base62(counter), at most 26 characters.
//
// Within one process, identifiers for a fixed kind are strictly increasing
// under base62 ordering as long as the wall clock does not move backwards:
// the counter increments while the millisecond stands still and resets when
// it advances.
func (g *Generator) Generate(kind string) (string, error) {
	if len(kind) != 1 || !isBase62(kind[0]) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	g.mu.Lock()
	now := g.nowMS()
	if now == g.lastMS {
		g.counter++
	} else {
		g.lastMS = now
		g.counter = 0
	}
	ts62 := encode(now)
	cnt62 := encode(g.counter)
	g.mu.Unlock()

	return g.prefix + kind + ts62 + cnt62, nil
}

// encode converts a non-negative integer to its base62 representation
// with no padding. Zero encodes as "0".
func encode(n int64) string {
	if n == 0 {
		return string(alphabet[0])
	}
	var buf [11]byte // 62^11 > 2^63, enough for any int64
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = alphabet[n%base]
		n /= base
	}
	return string(buf[i:])
}

func isBase62(ch byte) bool {
	return ch >= '0' && ch <= '9' ||
		ch >= 'A' && ch <= 'Z' ||
		ch >= 'a' && ch <= 'z'
}
