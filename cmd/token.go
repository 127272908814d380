package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/Mohsinsiddi/memefactory/internal/contract"
	"github.com/Mohsinsiddi/memefactory/internal/errs"
	"github.com/Mohsinsiddi/memefactory/internal/format"
	"github.com/Mohsinsiddi/memefactory/internal/retry"
	"github.com/Mohsinsiddi/memefactory/internal/storage"
	"github.com/Mohsinsiddi/memefactory/internal/tokens"
	"github.com/Mohsinsiddi/memefactory/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	tokenNameFlag   string
	tokenSymbolFlag string
	tokenSupplyFlag string
	tokenAllFlag    bool
	tokenLimitFlag  int
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Create and browse meme tokens",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new ERC-20 meme token through the factory",
	Long: `Create a token with a name (up to 50 characters), a symbol (1 to 10
letters or digits, upper-cased) and a whole-token supply between 1 and
1,000,000,000,000,000. Missing values are prompted for.`,
	Example: `  memefactory token create --name Rocket --symbol RKT --supply 1000000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrompter(os.Stdin, os.Stdout)
		name := tokenNameFlag
		if name == "" {
			name = p.Input("Token name", "")
		}
		symbol := tokenSymbolFlag
		if symbol == "" {
			symbol = p.Input("Symbol", "")
		}
		supply := tokenSupplyFlag
		if supply == "" {
			supply = p.Input("Total supply", "1000000")
		}
		if _, err := format.ValidateToken(name, symbol, supply); err != nil {
			return failWith(errs.Message(err), err)
		}

		a := newApp()
		defer a.close()
		ctx := cmd.Context()
		if err := a.connect(ctx); err != nil {
			return err
		}

		var created *tokens.Created
		err := withSpinner("Creating token…", func() error {
			var err error
			created, err = a.tokens.CreateToken(ctx, name, symbol, supply)
			return err
		})
		if err != nil {
			return failWith(errs.Message(err), err)
		}

		rec := created.Record
		explorer := a.explorer()
		fmt.Println(ui.Success(fmt.Sprintf("Token %s created", ui.Symbol(rec.Symbol, rec.Address))))
		fmt.Println(ui.KeyValueBlock(rec.Name, [][2]string{
			{"Symbol", rec.Symbol},
			{"Supply", format.Number(rec.TotalSupply)},
			{"Address", rec.Address},
			{"Transaction", created.TxHash},
			{"Token page", format.ExplorerURL(explorer, "token", rec.Address)},
			{"Tx page", format.TxURL(explorer, created.TxHash)},
		}))

		rememberToken(ctx, a, rec.Address, rec.Name, rec.Symbol)
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tokens you created (or every factory token with --all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()
		ctx := cmd.Context()
		if err := a.connect(ctx); err != nil {
			return err
		}

		if tokenAllFlag {
			return listAllTokens(ctx, a)
		}

		var recs []tokens.Record
		err := withSpinner("Loading your tokens…", func() error {
			var err error
			recs, err = a.tokens.LoadUserTokens(ctx)
			return err
		})
		if err != nil {
			return failWith(a.tokens.LastError(), err)
		}
		if len(recs) == 0 {
			fmt.Println(ui.Info("You have not created any tokens yet."))
			fmt.Println(ui.Hint("Create one with: memefactory token create"))
			return nil
		}
		printTokenTable(recs)
		fmt.Println(ui.Meta(fmt.Sprintf("%d token(s) created by %s", len(recs), format.ShortAddress(a.account()))))
		return nil
	},
}

// listAllTokens shows the newest tokens the factory has minted for anyone.
func listAllTokens(ctx context.Context, a *app) error {
	h := a.session.Handle()
	if h == nil {
		return failWith(errs.Message(errs.ErrContractNotReady), errs.ErrContractNotReady)
	}
	total, err := h.TotalTokensCount(ctx)
	if err != nil {
		return failWith("Failed to read the factory", err)
	}
	addrs, err := h.AllTokens(ctx)
	if err != nil {
		return failWith("Failed to read the factory", err)
	}
	if len(addrs) > tokenLimitFlag && tokenLimitFlag > 0 {
		addrs = addrs[len(addrs)-tokenLimitFlag:]
	}

	recs := make([]tokens.Record, 0, len(addrs))
	for i := len(addrs) - 1; i >= 0; i-- {
		var info contract.TokenInfo
		err := retry.Do(ctx, retry.DefaultAttempts, retry.DefaultDelay, func() error {
			var err error
			info, err = h.TokenInfo(ctx, addrs[i])
			return err
		})
		if err != nil {
			log.WithError(err).WithField("token", addrs[i].Hex()).Warn("skipping token")
			continue
		}
		recs = append(recs, tokens.Record{
			Address:     info.TokenAddress.Hex(),
			Name:        info.Name,
			Symbol:      info.Symbol,
			TotalSupply: info.TotalSupply.String(),
			Creator:     info.Creator.Hex(),
			CreatedAt:   info.CreatedAt(),
		})
	}
	printTokenTable(recs)
	fmt.Println(ui.Meta(fmt.Sprintf("showing %d of %s token(s) minted by the factory", len(recs), format.Number(total.String()))))
	return nil
}

func printTokenTable(recs []tokens.Record) {
	now := time.Now()
	t := ui.NewTable([]ui.Column{
		{Title: "SYMBOL", Width: 10},
		{Title: "NAME", Width: 22},
		{Title: "SUPPLY", Width: 10},
		{Title: "ADDRESS", Width: 42},
		{Title: "CREATED", Width: 10},
	})
	for _, r := range recs {
		t.AddRow(ui.Row{r.Symbol, r.Name, format.WithSuffix(r.TotalSupply), r.Address, format.TimeAgo(r.CreatedAt, now)})
	}
	fmt.Println(t.Render())
}

var tokenShowCmd = &cobra.Command{
	Use:   "show <address>",
	Short: "Show a factory token's details and your balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := args[0]
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%q is not a valid address", addr)
		}
		a := newApp()
		defer a.close()
		ctx := cmd.Context()
		if err := a.connect(ctx); err != nil {
			return err
		}

		info, err := a.session.Handle().TokenInfo(ctx, common.HexToAddress(addr))
		if err != nil {
			return failWith("Token not found in the factory", err)
		}
		tok, err := contract.NewToken(addr, a.session.Provider())
		if err != nil {
			return err
		}
		meta, err := tok.Metadata(ctx)
		if err != nil {
			return failWith("Failed to read token contract", err)
		}
		bal, err := tok.BalanceOf(ctx, a.account())
		if err != nil {
			return failWith("Failed to read your balance", err)
		}

		explorer := a.explorer()
		fmt.Println(ui.KeyValueBlock(info.Name+" ("+ui.Symbol(info.Symbol, addr)+")", [][2]string{
			{"Address", info.TokenAddress.Hex()},
			{"Creator", info.Creator.Hex()},
			{"Created", format.Date(info.CreatedAt().Local())},
			{"Supply", format.Number(info.TotalSupply.String())},
			{"Decimals", fmt.Sprint(meta.Decimals)},
			{"Your balance", trimUnits(chain.FormatUnits(bal, int(meta.Decimals))) + " " + meta.Symbol},
			{"Explorer", format.ExplorerURL(explorer, "token", info.TokenAddress.Hex())},
		}))
		rememberToken(ctx, a, info.TokenAddress.Hex(), info.Name, info.Symbol)
		return nil
	},
}

var tokenTransferCmd = &cobra.Command{
	Use:     "transfer <token> <to> <amount>",
	Short:   "Send tokens you hold to another address",
	Args:    cobra.ExactArgs(3),
	Example: `  memefactory token transfer 0xToken 0xFriend 1000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tokenAddr, to, amount := args[0], args[1], args[2]
		if !common.IsHexAddress(to) {
			return fmt.Errorf("recipient %q is not a valid address", to)
		}
		a := newApp()
		defer a.close()
		ctx := cmd.Context()
		if err := a.connect(ctx); err != nil {
			return err
		}

		tok, err := contract.NewToken(tokenAddr, a.session.Provider())
		if err != nil {
			return err
		}
		decimals, err := tok.Decimals(ctx)
		if err != nil {
			return failWith("Failed to read token contract", err)
		}
		raw, err := parseUnits(amount, decimals)
		if err != nil {
			return err
		}

		var (
			hash      string
			transfers []contract.TransferEvent
		)
		err = withSpinner("Sending transfer…", func() error {
			var err error
			if hash, err = tok.Transfer(ctx, a.account(), to, raw); err != nil {
				return err
			}
			receipt, err := a.provider.WaitForReceipt(ctx, hash)
			if err != nil {
				return err
			}
			transfers, err = tok.ParseTransfers(receipt)
			return err
		})
		if err != nil {
			return failWith(transferMessage(err), err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Sent %s to %s", ui.Val(amount), ui.Addr(to))))
		for _, ev := range transfers {
			fmt.Println(ui.Meta(fmt.Sprintf("  Transfer %s → %s: %s", format.ShortAddress(ev.From.Hex()), format.ShortAddress(ev.To.Hex()), trimUnits(chain.FormatUnits(ev.Value, int(decimals))))))
		}
		fmt.Println(ui.Meta("  " + format.TxURL(a.explorer(), hash)))
		return nil
	},
}

func transferMessage(err error) string {
	if errors.Is(err, chain.ErrReverted) {
		return "Transfer reverted"
	}
	err = errs.Classify(err)
	switch {
	case errs.Is(err, errs.ErrUserRejected), errs.Is(err, errs.ErrInsufficientFunds), errs.Is(err, errs.ErrContractRejected):
		return errs.Message(err)
	}
	return "Transfer failed. Please try again."
}

// rememberToken records a viewed token. Failures only cost the history entry.
func rememberToken(ctx context.Context, a *app, address, name, symbol string) {
	store, err := a.openStore(ctx)
	if err != nil {
		log.WithError(err).Debug("recent tokens unavailable")
		return
	}
	if err := store.AddRecentToken(storage.RecentToken{
		Address:  address,
		Name:     name,
		Symbol:   symbol,
		ViewedAt: time.Now(),
	}); err != nil {
		log.WithError(err).Warn("saving recent token")
	}
}

func init() {
	tokenCreateCmd.Flags().StringVar(&tokenNameFlag, "name", "", "token name")
	tokenCreateCmd.Flags().StringVar(&tokenSymbolFlag, "symbol", "", "token symbol")
	tokenCreateCmd.Flags().StringVar(&tokenSupplyFlag, "supply", "", "total supply in whole tokens")

	tokenListCmd.Flags().BoolVar(&tokenAllFlag, "all", false, "list every token the factory has minted")
	tokenListCmd.Flags().IntVar(&tokenLimitFlag, "limit", 20, "with --all, how many of the newest tokens to show")

	tokenCmd.AddCommand(tokenCreateCmd, tokenListCmd, tokenShowCmd, tokenTransferCmd)
}
