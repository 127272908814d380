package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/Mohsinsiddi/memefactory/internal/config"
	"github.com/Mohsinsiddi/memefactory/internal/errs"
	"github.com/Mohsinsiddi/memefactory/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Inspect and fix the wallet's network",
}

var networkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the target network and where the wallet currently is",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		net := cfg.TargetNetwork()
		current, err := a.provider.ChainID(cmd.Context())
		if err != nil {
			return err
		}

		status := ui.StyleSuccess.Render("on target")
		if id, err := config.ParseChainID(current); err == nil && current != a.session.TargetChainID() {
			status = ui.StyleWarning.Render("wrong network: " + chain.NetworkName(id.Int64()))
		}

		rpcs := cfg.RPCs()
		pairs := [][2]string{
			{"Target", fmt.Sprintf("%s (%s)", net.Name, net.ChainID)},
			{"Currency", fmt.Sprintf("%s (%s, %d decimals)", net.CurrencyName, net.CurrencySymbol, net.CurrencyDecimals)},
			{"Explorer", net.ExplorerURL},
			{"Wallet chain", current},
			{"Status", status},
		}
		for i, url := range rpcs {
			pairs = append(pairs, [2]string{fmt.Sprintf("RPC %d", i+1), url})
		}
		fmt.Println(ui.KeyValueBlock("Network", pairs))
		return nil
	},
}

var networkEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Switch the wallet to the target network, adding it if needed",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		err := withSpinner("Switching network…", func() error { return a.session.EnsureTargetChain(cmd.Context()) })
		if err != nil {
			return failWith(errs.ConnectMessage(err), err)
		}
		fmt.Println(ui.Success("Wallet is on " + ui.ChainName(cfg.TargetNetwork().Name)))
		return nil
	},
}

var networkRPCCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage custom RPC endpoints for the target network",
}

var networkRPCAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a custom RPC, tried before the network's own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.AddRPC(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Println(ui.Success("RPC added: " + args[0]))
		return nil
	},
}

var networkRPCRemoveCmd = &cobra.Command{
	Use:   "remove <url>",
	Short: "Remove a custom RPC",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveRPC(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Println(ui.Success("RPC removed: " + args[0]))
		return nil
	},
}

func init() {
	networkRPCCmd.AddCommand(networkRPCAddCmd, networkRPCRemoveCmd)
	networkCmd.AddCommand(networkShowCmd, networkEnsureCmd, networkRPCCmd)
}
