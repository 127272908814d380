package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/memefactory/internal/format"
	"github.com/Mohsinsiddi/memefactory/internal/ui"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the default wallet and switch it to the factory's network",
	Long: `Ask the default wallet for access, switch it to the target network
(adding the network first if the wallet does not know it) and bind the
token factory. The authorization is remembered until revoked with:
  memefactory wallet revoke`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		if err := withSpinner("Connecting wallet…", func() error { return a.connect(cmd.Context()) }); err != nil {
			return err
		}

		st := a.session.State()
		net := cfg.TargetNetwork()
		fmt.Println(ui.Success("Wallet connected"))
		fmt.Println(ui.KeyValueBlock("Session", [][2]string{
			{"Account", st.Account},
			{"Network", fmt.Sprintf("%s (%s)", net.Name, st.ChainID)},
			{"Factory", cfg.Factory()},
			{"Explorer", format.ExplorerURL(net.ExplorerURL, "address", st.Account)},
		}))
		fmt.Println(ui.Hint("Create a token with: memefactory token create"))
		return nil
	},
}
