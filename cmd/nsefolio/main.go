// Command nsefolio serves and reports an NSE/BSE equity portfolio dashboard.
//
// Subcommands are built with cobra; see rootCmd for the tree.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seenimoa/nsefolio/api"
	"github.com/seenimoa/nsefolio/internal/config"
	"github.com/seenimoa/nsefolio/internal/logger"
	"github.com/seenimoa/nsefolio/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nsefolio",
	Short: "nsefolio — NSE/BSE portfolio dashboard",
	Long: `nsefolio tracks a portfolio of NSE and BSE holdings.
It fetches live prices and valuation ratios, computes investment,
present value and gain/loss per holding and per sector, and serves
a dashboard that refreshes prices every few seconds.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			level = override
		}
		logger.Init(level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	api.Version = version

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(holdingsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(ratiosCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nsefolio %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  nsefolio — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Market Status: %s\n", utils.MarketStatus())
		fmt.Printf("  Time (IST):    %s\n", utils.FormatDateTimeIST(utils.NowIST()))
		fmt.Println()

		configFile := cfg.File
		if configFile == "" {
			configFile = "(defaults)"
		}
		fmt.Println("  Configuration:")
		fmt.Printf("    Config File:   %s\n", configFile)
		fmt.Printf("    Storage:       %s\n", cfg.Storage.Driver)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    Refresh Every: %s\n", cfg.Refresh.Interval())
		fmt.Printf("    Price Source:  %s (timeout %s)\n", cfg.Providers.PriceBaseURL, cfg.Providers.PriceTimeout())
		fmt.Printf("    Ratio Source:  %s (timeout %s)\n", cfg.Providers.RatioBaseURL, cfg.Providers.RatioTimeout())
		fmt.Printf("    Cache TTL:     %s\n", cfg.Providers.CacheTTL())
		fmt.Println()

		fmt.Println("  Secrets:")
		for _, s := range config.CheckSecrets(cfg) {
			status := "❌ not set"
			if s.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", s.Source, s.Masked)
			}
			fmt.Printf("    %-25s %s\n", s.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
