package cmd

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/Mohsinsiddi/memefactory/internal/config"
	"github.com/Mohsinsiddi/memefactory/internal/format"
	"github.com/Mohsinsiddi/memefactory/internal/provider"
	"github.com/Mohsinsiddi/memefactory/internal/tokens"
	"github.com/Mohsinsiddi/memefactory/internal/ui"
	"github.com/spf13/cobra"
)

const dashboardAutoRefresh = 30 * time.Second

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live view of your wallet session and tokens",
	Long: `Open a full-screen view of the wallet session and the tokens you have
created. The list follows account and network changes and, when the
autoRefresh preference is on, reloads from chain every 30 seconds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Prompts cannot share the terminal with the dashboard; pressing c
		// is the approval.
		a := newAppWith(provider.AutoApprove)
		defer a.close()

		sub := a.tokens.Attach(ctx)
		defer sub.Unsubscribe()

		if err := a.session.Start(ctx); err != nil {
			return err
		}

		opts := ui.DashboardOptions{}
		if store, err := a.openStore(ctx); err == nil {
			if p, err := store.Preferences(); err == nil && p.AutoRefresh {
				opts.AutoRefresh = dashboardAutoRefresh
			}
		}

		return ui.RunDashboard(ctx, ui.DashboardActions{
			Snapshot:   func() ui.DashboardState { return dashboardSnapshot(a) },
			Connect:    a.session.Connect,
			Disconnect: a.session.Disconnect,
			Refresh: func(ctx context.Context) error {
				err := a.tokens.RefreshTokens(ctx)
				if errors.Is(err, tokens.ErrSuperseded) {
					return nil
				}
				return err
			},
			ExplorerURL: func(addr string) string { return format.ExplorerURL(a.explorer(), "token", addr) },
		}, opts)
	},
}

func dashboardSnapshot(a *app) ui.DashboardState {
	st := a.session.State()
	out := ui.DashboardState{
		Account:   st.Account,
		Connected: st.Connected,
		ChainID:   st.ChainID,
		Network:   networkLabel(st.ChainID, a.session.TargetChainID()),
		Loading:   st.Loading || a.tokens.Loading(),
		Error:     st.LastError,
	}
	if out.Error == "" {
		out.Error = a.tokens.LastError()
	}
	for _, r := range a.tokens.Tokens() {
		out.Tokens = append(out.Tokens, ui.DashboardToken{
			Address:   r.Address,
			Name:      r.Name,
			Symbol:    r.Symbol,
			Supply:    r.TotalSupply,
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}

func networkLabel(chainID, target string) string {
	if chainID == "" {
		return cfg.TargetNetwork().Name
	}
	if strings.EqualFold(chainID, target) {
		return cfg.TargetNetwork().Name
	}
	id, err := config.ParseChainID(chainID)
	if err != nil {
		return chainID
	}
	return chain.NetworkName(id.Int64()) + " (wrong network)"
}
