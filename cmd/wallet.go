package cmd

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/memefactory/internal/ui"
	"github.com/Mohsinsiddi/memefactory/internal/wallet"
	"github.com/spf13/cobra"
)

var (
	walletKeyFlag      string
	walletGenerateFlag bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage local wallets and their connections",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add a wallet",
	Long: `Add a signing wallet from a private key (--key), generate a new one
(--generate), or add a watch-only address.

Private keys are stored in the OS keychain, never in the config directory.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr := newWalletManager()

		switch {
		case walletGenerateFlag:
			w, err := mgr.Generate(name)
			if err != nil {
				return err
			}
			hexKey, err := mgr.Keystore().Retrieve(w.KeyRef)
			if err != nil {
				return fmt.Errorf("reading back generated key: %w", err)
			}
			fmt.Println()
			fmt.Printf("  %s  %s\n", ui.Meta("Wallet :"), ui.Val(w.Name))
			fmt.Printf("  %s  %s\n\n", ui.Meta("Address:"), ui.Addr(w.Address))
			fmt.Println(ui.DangerBox(
				ui.Warn("SAVE YOUR PRIVATE KEY. It is shown only once.") + "\n\n" +
					ui.Val(hexKey) + "\n\n" +
					ui.Hint("Fund this address with Base Sepolia ETH before creating tokens."),
			))

		case walletKeyFlag != "":
			w, err := mgr.AddWithKey(name, walletKeyFlag)
			if err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address))))

		case len(args) == 2:
			if err := mgr.AddWatchOnly(name, args[1]); err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(args[1]))))
			fmt.Println(ui.Hint("Watch-only wallets can browse tokens but cannot create them."))

		default:
			return errors.New("choose one: --generate, --key <private-key>, or an address for a watch-only wallet")
		}

		fmt.Println(ui.Hint(fmt.Sprintf("Make it the default with: memefactory wallet use %s", name)))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newWalletManager()
		wallets, err := mgr.List()
		if err != nil {
			return err
		}
		if len(wallets) == 0 {
			fmt.Println(ui.Info("No wallets configured yet."))
			fmt.Println(ui.Hint("Create one with: memefactory wallet add main --generate"))
			return nil
		}

		perms := newPermissions()
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Type", Width: 12},
			{Title: "Default", Width: 8},
			{Title: "Connected", Width: 10},
		})
		for _, w := range wallets {
			def := ""
			if w.IsDefault {
				def = ui.StyleSuccess.Render("✓")
			}
			connected := ""
			if ok, _ := perms.IsAuthorized(w.Address); ok {
				connected = ui.StyleSuccess.Render("●")
			}
			t.AddRow(ui.Row{ui.Val(w.Name), ui.Addr(w.Address), ui.Meta(w.Type), def, connected})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the wallet the CLI connects with",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := newWalletManager().SetDefault(name); err != nil {
			return err
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			log.WithError(err).Warn("saving config")
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr := newWalletManager()
		w, err := mgr.Get(name)
		if err != nil {
			return err
		}
		if !assumeYes && !ui.ConfirmDanger(fmt.Sprintf("Remove wallet %q (%s)?", name, w.Address)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		if err := mgr.Remove(name); err != nil {
			return err
		}
		if err := newPermissions().Revoke(w.Address); err != nil {
			log.WithError(err).Warn("revoking removed wallet")
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletRevokeCmd = &cobra.Command{
	Use:   "revoke [name]",
	Short: "Disconnect a wallet (or all wallets) from memefactory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			a := newApp()
			defer a.close()
			if err := a.provider.Revoke(cmd.Context()); err != nil {
				return err
			}
			fmt.Println(ui.Success("All wallets disconnected."))
			return nil
		}

		w, err := newWalletManager().Get(args[0])
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return fmt.Errorf("wallet %q not found", args[0])
		}
		if err != nil {
			return err
		}
		if err := newPermissions().Revoke(w.Address); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q disconnected.", w.Name)))
		return nil
	},
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key (hex) for a signing wallet")
	walletAddCmd.Flags().BoolVar(&walletGenerateFlag, "generate", false, "generate a new signing wallet")
	walletAddCmd.MarkFlagsMutuallyExclusive("key", "generate")

	walletCmd.AddCommand(walletAddCmd, walletListCmd, walletUseCmd, walletRemoveCmd, walletRevokeCmd)
}
