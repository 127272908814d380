package format

import (
	"strings"
	"testing"
	"time"

	"github.com/Mohsinsiddi/memefactory/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0xf39F...2266", ShortAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"))
	assert.Equal(t, "", ShortAddress(""))
	assert.Equal(t, "0xabc", ShortAddress("0xabc"))
}

func TestNumber(t *testing.T) {
	tests := []struct{ in, want string }{
		{"0", "0"},
		{"999", "999"},
		{"1000000", "1,000,000"},
		{"-1234", "-1,234"},
		{"123456789012345678901234", "123,456,789,012,345,678,901,234"},
		{"", "0"},
		{"abc", "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Number(tt.in), tt.in)
	}
}

func TestWithSuffix(t *testing.T) {
	tests := []struct{ in, want string }{
		{"999", "999"},
		{"1500", "1.5K"},
		{"1000000", "1.0M"},
		{"2500000000", "2.5B"},
		{"1000000000000000", "1000.0T"},
		{"", "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WithSuffix(tt.in), tt.in)
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "5s ago", TimeAgo(now.Add(-5*time.Second), now))
	assert.Equal(t, "2m ago", TimeAgo(now.Add(-150*time.Second), now))
	assert.Equal(t, "3h ago", TimeAgo(now.Add(-3*time.Hour), now))
	assert.Equal(t, "4d ago", TimeAgo(now.Add(-4*24*time.Hour), now))
	assert.Equal(t, "1/1/2024", TimeAgo(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), now))
}

func TestDate(t *testing.T) {
	ts := time.Date(2024, 3, 10, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "Mar 10, 2024, 03:04 PM", Date(ts))
}

func TestTruncateAndCapitalize(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "hel...", Truncate("hello", 3))
	assert.Equal(t, "Doge", Capitalize("dOGE"))
	assert.Equal(t, "", Capitalize(""))
}

func TestExplorerURL(t *testing.T) {
	assert.Equal(t, "https://x.org/address/0xabc", ExplorerURL("https://x.org/", "address", "0xabc"))
	assert.Equal(t, "https://x.org/tx/0x01", TxURL("https://x.org", "0x01"))
}

func TestRandomID(t *testing.T) {
	a, b := RandomID(), RandomID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, strings.ToLower(a), a)
}

func TestColorFromAddress(t *testing.T) {
	assert.Equal(t, "#8b5cf6", ColorFromAddress(""))
	// 0x66 = 102, 102 % 8 = 6
	assert.Equal(t, "#8b5cf6", ColorFromAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"))
	// 0xc9 = 201, 201 % 8 = 1
	assert.Equal(t, "#ec4899", ColorFromAddress("0x00000000000000000000000000000000000000c9"))
	assert.Equal(t, "#8b5cf6", ColorFromAddress("0xzz"))
}

func TestDedupe(t *testing.T) {
	in := []string{"0xAB", "0xcd", "0xab", "0xCD", "0xef"}
	out := Dedupe(in, strings.ToLower)
	assert.Equal(t, []string{"0xAB", "0xcd", "0xef"}, out)
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestValidateToken(t *testing.T) {
	n, err := ValidateToken("Rocket", "RKT", "1000000")
	require.NoError(t, err)
	assert.Equal(t, "1000000", n.String())

	_, err = ValidateToken("Rocket", "rkt", "1")
	assert.NoError(t, err, "lower-case symbol is accepted")

	bad := []struct{ name, symbol, supply string }{
		{"", "RKT", "1"},
		{"   ", "RKT", "1"},
		{strings.Repeat("x", 51), "RKT", "1"},
		{"Rocket", "", "1"},
		{"Rocket", "TOOLONGSYMB", "1"},
		{"Rocket", "RK-T", "1"},
		{"Rocket", "RKT", "0"},
		{"Rocket", "RKT", "-5"},
		{"Rocket", "RKT", "1000000000000001"},
		{"Rocket", "RKT", "1.5"},
		{"Rocket", "RKT", "lots"},
	}
	for _, b := range bad {
		_, err := ValidateToken(b.name, b.symbol, b.supply)
		require.Error(t, err, "%q/%q/%q", b.name, b.symbol, b.supply)
		assert.True(t, errs.Is(err, errs.ErrInvalidInput))
	}
}

func TestValidNameCountsCharacters(t *testing.T) {
	assert.True(t, ValidName(strings.Repeat("🚀", 30)), "30 emoji is 120 bytes")
	assert.True(t, ValidName(strings.Repeat("猫", 50)))
	assert.False(t, ValidName(strings.Repeat("猫", 51)))
}

func TestParseSupply_UpperBound(t *testing.T) {
	n, ok := ParseSupply("1000000000000000")
	require.True(t, ok)
	assert.Equal(t, "1000000000000000", n.String())
}
