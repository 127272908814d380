package ui

import (
	"github.com/Mohsinsiddi/memefactory/internal/format"
	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#10B981") // green, confirmations
	ColorWarning   = lipgloss.Color("#F59E0B") // amber, prompts
	ColorError     = lipgloss.Color("#EF4444") // red, failures
	ColorInfo      = lipgloss.Color("#3B82F6") // blue, notices
	ColorAddress   = lipgloss.Color("#00B4D8") // cyan, addresses and hashes
	ColorValue     = lipgloss.Color("#FFFFFF") // white bold, amounts
	ColorMeta      = lipgloss.Color("#6B7280") // gray, timestamps
	ColorBorder    = lipgloss.Color("#4C1D95") // deep purple, chrome
	ColorChain     = lipgloss.Color("#8B5CF6") // purple, chain names
	ColorHighlight = lipgloss.Color("#EC4899") // pink, selection
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleChain   = lipgloss.NewStyle().Foreground(ColorChain).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleDanger = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(ColorError).
			Foreground(ColorError).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorChain).
			Bold(true).
			MarginBottom(1)

	StyleDim = lipgloss.NewStyle().Foreground(ColorMeta)
)

// Banner returns the memefactory banner.
func Banner(version string) string {
	art := `
  ┳┳┓┏┓┳┳┓┏┓  ┏┓┏┓┏┓┏┳┓┏┓┳┓┓┏
  ┃┃┃┣ ┃┃┃┣   ┣ ┣┫┃  ┃ ┃┃┣┫┗┫
  ┛ ┗┗┛┛ ┗┗┛  ┻ ┛┗┗┛ ┻ ┗┛┛┗┗┛`

	tagline := StyleMeta.Render("  Mint meme tokens from your terminal  ·  v" + version)
	return StyleChain.Render(art) + "\n" + tagline + "\n"
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Info formats a neutral notice.
func Info(msg string) string { return StyleInfo.Render("ℹ " + msg) }

// Hint formats a suggestion, usually a command to run next.
func Hint(msg string) string { return StyleMeta.Render("💡 " + msg) }

// Addr formats an address.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a value.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// ChainName formats a chain name.
func ChainName(c string) string { return StyleChain.Render(c) }

// Symbol renders a token symbol in the accent colour derived from its address.
func Symbol(symbol, address string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(format.ColorFromAddress(address))).Bold(true).Render(symbol)
}

// DangerBox frames content that must not be missed, such as a private key.
func DangerBox(content string) string { return StyleDanger.Render(content) }

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
