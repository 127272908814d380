package cmd

import (
	"fmt"
	"time"

	"github.com/Mohsinsiddi/memefactory/internal/format"
	"github.com/Mohsinsiddi/memefactory/internal/storage"
	"github.com/Mohsinsiddi/memefactory/internal/ui"
	"github.com/spf13/cobra"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Tokens you recently created or looked at",
}

func openStore(cmd *cobra.Command) (*storage.Store, error) { return openLocalStore(cmd.Context()) }

var recentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent tokens, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		list, err := s.RecentTokens()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println(ui.Info("No recent tokens."))
			return nil
		}
		now := time.Now()
		t := ui.NewTable([]ui.Column{
			{Title: "SYMBOL", Width: 10},
			{Title: "NAME", Width: 22},
			{Title: "ADDRESS", Width: 42},
			{Title: "VIEWED", Width: 10},
		})
		for _, r := range list {
			t.AddRow(ui.Row{ui.Symbol(r.Symbol, r.Address), r.Name, r.Address, format.TimeAgo(r.ViewedAt, now)})
		}
		fmt.Println(t.Render())
		return nil
	},
}

var recentRemoveCmd = &cobra.Command{
	Use:   "remove <address>",
	Short: "Forget one recent token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.RemoveRecentToken(args[0]); err != nil {
			return err
		}
		fmt.Println(ui.Success("Removed " + format.ShortAddress(args[0])))
		return nil
	},
}

var recentClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all recent tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !assumeYes && !ui.Confirm("Clear all recent tokens?") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.ClearRecentTokens(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Recent tokens cleared."))
		return nil
	},
}

func init() {
	recentCmd.AddCommand(recentListCmd, recentRemoveCmd, recentClearCmd)
}
