package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/memefactory/internal/errs"
	"github.com/Mohsinsiddi/memefactory/internal/format"
	tea "github.com/charmbracelet/bubbletea"
)

// DashboardToken is one row of the token list.
type DashboardToken struct {
	Address   string
	Name      string
	Symbol    string
	Supply    string
	CreatedAt time.Time
}

// DashboardState is what the dashboard shows on each poll.
type DashboardState struct {
	Account   string
	Connected bool
	ChainID   string
	Network   string
	Loading   bool
	Error     string
	Tokens    []DashboardToken
}

// DashboardActions connects the dashboard to the running session.
type DashboardActions struct {
	Snapshot    func() DashboardState
	Connect     func(ctx context.Context) error
	Disconnect  func()
	Refresh     func(ctx context.Context) error
	ExplorerURL func(address string) string
}

// DashboardOptions tunes polling. A zero AutoRefresh disables periodic
// reloads from chain.
type DashboardOptions struct {
	Poll        time.Duration
	AutoRefresh time.Duration
	Now         func() time.Time
}

// DashboardModel is the Bubble Tea model for the live session and token view.
type DashboardModel struct {
	ctx     context.Context
	actions DashboardActions
	opts    DashboardOptions

	state    DashboardState
	cursor   int
	frame    int
	busy     string
	flash    string
	flashErr bool
	Quitting bool
}

type (
	dashPollMsg    struct{}
	dashRefreshMsg struct{}
	dashSpinMsg    struct{}
	dashDoneMsg    struct {
		action string
		err    error
	}
)

// NewDashboardModel builds the model. ctx bounds the actions it triggers.
func NewDashboardModel(ctx context.Context, actions DashboardActions, opts DashboardOptions) DashboardModel {
	if opts.Poll <= 0 {
		opts.Poll = 500 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := DashboardModel{ctx: ctx, actions: actions, opts: opts}
	if actions.Snapshot != nil {
		m.state = actions.Snapshot()
	}
	return m
}

// RunDashboard runs the dashboard until the user quits or ctx is done.
func RunDashboard(ctx context.Context, actions DashboardActions, opts DashboardOptions) error {
	p := tea.NewProgram(NewDashboardModel(ctx, actions, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (m DashboardModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.pollCmd(), dashSpin()}
	if m.opts.AutoRefresh > 0 {
		cmds = append(cmds, m.refreshTick())
	}
	return tea.Batch(cmds...)
}

func (m DashboardModel) pollCmd() tea.Cmd {
	return tea.Tick(m.opts.Poll, func(time.Time) tea.Msg { return dashPollMsg{} })
}

func (m DashboardModel) refreshTick() tea.Cmd {
	return tea.Tick(m.opts.AutoRefresh, func(time.Time) tea.Msg { return dashRefreshMsg{} })
}

func dashSpin() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg { return dashSpinMsg{} })
}

func (m DashboardModel) run(action string, fn func(context.Context) error) tea.Cmd {
	if fn == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg { return dashDoneMsg{action: action, err: fn(ctx)} }
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.onKey(msg)

	case dashPollMsg:
		if m.actions.Snapshot != nil {
			m.state = m.actions.Snapshot()
			m.clampCursor()
		}
		return m, m.pollCmd()

	case dashRefreshMsg:
		var cmd tea.Cmd
		if m.state.Connected && m.busy == "" {
			cmd = m.run("refresh", m.actions.Refresh)
		}
		return m, tea.Batch(cmd, m.refreshTick())

	case dashSpinMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, dashSpin()

	case dashDoneMsg:
		m.busy = ""
		m.flash, m.flashErr = "", false
		if msg.err != nil {
			m.flashErr = true
			if msg.action == "connect" {
				m.flash = errs.ConnectMessage(msg.err)
			} else {
				m.flash = trimErr(msg.err.Error())
			}
		}
		if m.actions.Snapshot != nil {
			m.state = m.actions.Snapshot()
			m.clampCursor()
		}
	}
	return m, nil
}

func (m DashboardModel) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash, m.flashErr = "", false
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.Quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.state.Tokens)-1 {
			m.cursor++
		}

	case "r":
		if !m.state.Connected {
			m.flash, m.flashErr = "Connect a wallet first", true
			break
		}
		if m.busy == "" {
			m.busy = "Refreshing tokens…"
			return m, m.run("refresh", m.actions.Refresh)
		}

	case "c":
		if m.busy == "" && !m.state.Connected {
			m.busy = "Waiting for wallet…"
			return m, m.run("connect", m.actions.Connect)
		}

	case "d":
		if m.state.Connected && m.actions.Disconnect != nil {
			m.actions.Disconnect()
			if m.actions.Snapshot != nil {
				m.state = m.actions.Snapshot()
			}
			m.cursor = 0
			m.flash = "Disconnected"
		}

	case "o":
		if tok, ok := m.selected(); ok && m.actions.ExplorerURL != nil {
			if err := openBrowser(m.actions.ExplorerURL(tok.Address)); err != nil {
				m.flash, m.flashErr = "Could not open browser", true
			} else {
				m.flash = "Opening in browser…"
			}
		}

	case "y":
		if tok, ok := m.selected(); ok {
			if err := copyToClipboard(tok.Address); err != nil {
				m.flash, m.flashErr = "Copy failed", true
			} else {
				m.flash = "Copied: " + format.ShortAddress(tok.Address)
			}
		}
	}
	return m, nil
}

func (m DashboardModel) selected() (DashboardToken, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Tokens) {
		return DashboardToken{}, false
	}
	return m.state.Tokens[m.cursor], true
}

func (m *DashboardModel) clampCursor() {
	if m.cursor >= len(m.state.Tokens) {
		m.cursor = len(m.state.Tokens) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m DashboardModel) View() string {
	if m.Quitting {
		return ""
	}
	var sb strings.Builder
	spin := spinnerFrames[m.frame]

	network := m.state.Network
	if network == "" {
		network = "unknown network"
	}
	sb.WriteString(StyleTitle.Render("🏭 MemeFactory  ·  "+network) + "\n")

	if m.state.Connected {
		sb.WriteString(StyleSuccess.Render("● Connected") + "  " + Addr(m.state.Account) + "  " + Meta("chain "+m.state.ChainID) + "\n")
	} else {
		sb.WriteString(StyleWarning.Render("○ Not connected") + "  " + Meta("press c to connect") + "\n")
	}

	switch {
	case m.busy != "":
		sb.WriteString(StyleInfo.Render(spin+" "+m.busy) + "\n\n")
	case m.state.Loading:
		sb.WriteString(StyleInfo.Render(spin+" Loading tokens…") + "\n\n")
	case m.state.Error != "":
		sb.WriteString(Err(m.state.Error) + "\n\n")
	default:
		sb.WriteString("\n")
	}

	if len(m.state.Tokens) == 0 {
		if m.state.Connected && !m.state.Loading {
			sb.WriteString(Meta("  No tokens yet. Create one with: memefactory token create") + "\n")
		}
	} else {
		now := m.opts.Now()
		t := NewTable([]Column{
			{Title: "SYMBOL", Width: 10},
			{Title: "NAME", Width: 20},
			{Title: "SUPPLY", Width: 10},
			{Title: "ADDRESS", Width: 14},
			{Title: "CREATED", Width: 10},
		})
		for _, tok := range m.state.Tokens {
			t.AddRow(Row{
				tok.Symbol,
				tok.Name,
				format.WithSuffix(tok.Supply),
				TruncateAddr(tok.Address),
				format.TimeAgo(tok.CreatedAt, now),
			})
		}
		t.SelIdx = m.cursor
		sb.WriteString(t.Render())
		sb.WriteString(Meta(fmt.Sprintf("  %d token(s)", len(m.state.Tokens))) + "\n")
	}

	sb.WriteString("\n")
	switch {
	case m.flash != "" && m.flashErr:
		sb.WriteString(StyleError.Render("  ✗ " + m.flash))
	case m.flash != "":
		sb.WriteString(StyleSuccess.Render("  ✓ " + m.flash))
	default:
		sb.WriteString(dashboardControls(m.state.Connected))
	}
	sb.WriteString("\n")
	return sb.String()
}

func dashboardControls(connected bool) string {
	sep := StyleMeta.Render("   ")
	var sb strings.Builder
	sb.WriteString(StyleMeta.Render("[ ↑↓ ] navigate"))
	sb.WriteString(sep)
	if connected {
		sb.WriteString(StyleInfo.Render("[ r ]") + StyleMeta.Render(" refresh"))
		sb.WriteString(sep)
		sb.WriteString(StyleInfo.Render("[ o ]") + StyleMeta.Render(" explorer"))
		sb.WriteString(sep)
		sb.WriteString(StyleWarning.Render("[ y ]") + StyleMeta.Render(" copy address"))
		sb.WriteString(sep)
		sb.WriteString(StyleMeta.Render("[ d ] disconnect"))
	} else {
		sb.WriteString(StyleSuccess.Render("[ c ]") + StyleMeta.Render(" connect"))
	}
	sb.WriteString(sep)
	sb.WriteString(StyleMeta.Render("[ q ] quit"))
	return sb.String()
}
