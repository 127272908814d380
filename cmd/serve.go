package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/memefactory/internal/server"
	"github.com/Mohsinsiddi/memefactory/internal/ui"
	"github.com/spf13/cobra"
)

var serveAddrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the health probe and Prometheus metrics over HTTP",
	Long: `Serve GET /api/health (status, timestamp, version, environment, uptime)
and GET /metrics until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddrFlag
		if addr == "" {
			addr = cfg.ListenAddr()
		}
		srv := server.New(server.Options{
			Addr:        addr,
			Version:     Version,
			Environment: cfg.Env(),
		}, log)

		fmt.Println(ui.Info(fmt.Sprintf("Listening on http://%s (health: /api/health, metrics: /metrics)", addr)))
		return srv.Serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "listen address (default from config or MEMEFACTORY_HTTP_ADDR)")
}
