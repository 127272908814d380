// Package format renders addresses, amounts and times for display and
// validates token creation input.
package format

import (
	"fmt"
	"math/big"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// ShortAddress renders 0x1234...abcd. Empty input gives "".
func ShortAddress(addr string) string {
	if addr == "" {
		return ""
	}
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

func parseInteger(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	return new(big.Int).SetString(s, 10)
}

// Number renders a decimal integer string with thousands separators.
// Unparseable input renders as "0".
func Number(s string) string {
	n, ok := parseInteger(s)
	if !ok {
		return "0"
	}
	if n.IsInt64() {
		return printer.Sprintf("%d", n.Int64())
	}
	return groupDigits(n.String())
}

func groupDigits(s string) string {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

var suffixes = []struct {
	min    float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// WithSuffix renders large integers as 1.5K, 2.0M, 3.1B or 1.0T.
func WithSuffix(s string) string {
	n, ok := parseInteger(s)
	if !ok {
		return "0"
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	for _, sf := range suffixes {
		if f >= sf.min {
			return strconv.FormatFloat(f/sf.min, 'f', 1, 64) + sf.suffix
		}
	}
	return Number(s)
}

// TimeAgo renders t relative to now: 42s ago, 5m ago, 3h ago, 2d ago. Past
// 30 days it falls back to a short date.
func TimeAgo(t, now time.Time) string {
	secs := int64(now.Sub(t) / time.Second)
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds ago", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh ago", secs/3600)
	case secs < 2592000:
		return fmt.Sprintf("%dd ago", secs/86400)
	}
	return ShortDate(t)
}

// ShortDate renders 1/2/2006.
func ShortDate(t time.Time) string {
	return t.Format("1/2/2006")
}

// Date renders Jan 2, 2006, 03:04 PM.
func Date(t time.Time) string {
	return t.Format("Jan 2, 2006, 03:04 PM")
}

// Truncate cuts text to max runes and appends "...".
func Truncate(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	r := []rune(text)
	return string(r[:max]) + "..."
}

// Capitalize upper-cases the first rune and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// ExplorerURL builds <base>/<kind>/<id>, kind being "address", "token" or "tx".
func ExplorerURL(base, kind, id string) string {
	return strings.TrimRight(base, "/") + "/" + kind + "/" + id
}

// TxURL builds the explorer link for a transaction hash.
func TxURL(base, hash string) string { return ExplorerURL(base, "tx", hash) }

// RandomID returns a short random identifier.
func RandomID() string {
	return strconv.FormatUint(rand.Uint64(), 36) + strconv.FormatInt(time.Now().UnixMilli(), 36)
}

var palette = []string{
	"#8b5cf6", "#ec4899", "#f59e0b", "#10b981",
	"#3b82f6", "#ef4444", "#8b5cf6", "#f97316",
}

// ColorFromAddress picks a stable accent colour from the last byte of addr.
func ColorFromAddress(addr string) string {
	if len(addr) < 2 {
		return palette[0]
	}
	n, err := strconv.ParseUint(addr[len(addr)-2:], 16, 8)
	if err != nil {
		return palette[0]
	}
	return palette[int(n)%len(palette)]
}

// Dedupe keeps the first item for every key, preserving order.
func Dedupe[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
