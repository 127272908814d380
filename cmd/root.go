package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mohsinsiddi/memefactory/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/memefactory/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir    string
	cfg       *config.Config
	verbose   bool
	assumeYes bool
	log       = logrus.New()
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "memefactory",
	Short: "Mint and track meme tokens on Base Sepolia",
	Long: `memefactory connects a local wallet to the MemeFactory token factory.

  Connect a wallet, make sure it is on the factory's network, create
  ERC-20 meme tokens and browse the ones you have minted.

Wallet requests (connect, network switch, transactions) are confirmed
interactively. Pass --yes to approve them all for one invocation.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		log.WithFields(logrus.Fields{
			"dir":     cfg.Dir(),
			"chain":   cfg.TargetNetwork().ChainID,
			"factory": cfg.Factory(),
		}).Debug("config loaded")
		return nil
	},
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(1)
	}
}

func init() {
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $MEMEFACTORY_CONFIG_DIR or ~/.memefactory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "approve every wallet request without prompting")

	rootCmd.AddCommand(
		walletCmd,
		connectCmd,
		networkCmd,
		tokenCmd,
		recentCmd,
		prefsCmd,
		dashboardCmd,
		serveCmd,
	)
}
