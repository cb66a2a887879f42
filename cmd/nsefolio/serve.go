package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seenimoa/nsefolio/api"
	"github.com/seenimoa/nsefolio/internal/logger"
)

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.API.Port = port
		}
		noUI, _ := cmd.Flags().GetBool("no-ui")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		srv := api.NewServer(cfg, api.Deps{
			Orchestrator: a.orch,
			Holdings:     a.store,
			Prices:       a.prices,
			Ratios:       a.ratios,
		})
		if noUI {
			srv.SetServeUI(false)
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		logger.Get().Infow("starting nsefolio", "version", version, "addr", addr, "storage", cfg.Storage.Driver)
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides config)")
	serveCmd.Flags().Bool("no-ui", false, "serve the API only, without the embedded dashboard")
}
