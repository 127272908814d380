package cmd

import (
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/memefactory/internal/errs"
	"github.com/Mohsinsiddi/memefactory/internal/storage"
	"github.com/Mohsinsiddi/memefactory/internal/ui"
	"github.com/spf13/cobra"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change local preferences",
}

func printPrefs(p storage.Preferences) {
	fmt.Println(ui.KeyValueBlock("Preferences", [][2]string{
		{"theme", p.Theme},
		{"autoRefresh", fmt.Sprint(p.AutoRefresh)},
		{"notifications", fmt.Sprint(p.Notifications)},
		{"defaultGasLimit", p.DefaultGasLimit},
	}))
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		p, err := s.Preferences()
		if err != nil {
			return err
		}
		printPrefs(p)
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one preference",
	Long:  "Keys: " + strings.Join(storage.PreferenceKeys, ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		p, err := s.UpdatePreference(args[0], args[1])
		if errs.Is(err, errs.ErrInvalidInput) {
			return failWith(err.Error(), err)
		}
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s = %s", args[0], args[1])))
		printPrefs(p)
		return nil
	},
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore default preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.ResetPreferences(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Preferences reset."))
		printPrefs(storage.DefaultPreferences())
		return nil
	},
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd, prefsResetCmd)
}
