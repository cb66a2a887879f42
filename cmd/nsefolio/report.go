package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/seenimoa/nsefolio/internal/view"
	"github.com/seenimoa/nsefolio/pkg/models"
	"github.com/seenimoa/nsefolio/pkg/utils"
)

// --- Report Command ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch live data once and print the portfolio report",
	RunE: func(cmd *cobra.Command, args []string) error {
		sortKey, _ := cmd.Flags().GetString("sort")
		sortDir, _ := cmd.Flags().GetString("dir")
		plain, _ := cmd.Flags().GetBool("plain")

		key, dir, err := view.ParseSort(sortKey, sortDir)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.orch.Load(cmd.Context()); err != nil {
			return err
		}
		md := view.Markdown(view.Build(a.orch.Current(), key, dir))

		if plain {
			fmt.Print(md)
			return nil
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(160),
		)
		if err != nil {
			return fmt.Errorf("markdown renderer: %w", err)
		}
		out, err := r.Render(md)
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	reportCmd.Flags().String("sort", "", "column to sort holdings by, e.g. gainLoss, presentValue, peRatio")
	reportCmd.Flags().String("dir", "asc", "sort direction (asc, desc)")
	reportCmd.Flags().Bool("plain", false, "print raw Markdown instead of rendering it")
}

// --- Quote & Ratios Commands ---

var quoteCmd = &cobra.Command{
	Use:   "quote [symbol]",
	Short: "Fetch the latest price for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exch, _ := cmd.Flags().GetString("exchange")
		exchange, err := models.ParseExchange(exch)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.prices.Fetch(cmd.Context(), args[0], exchange)
		q := res.Quote
		fmt.Printf("💹 %s (%s)\n", q.Ticker, q.Source)
		if q.Name != "" {
			fmt.Printf("   Name:     %s\n", q.Name)
		}
		fmt.Printf("   Price:    %s\n", utils.FormatINR(q.Price))
		fmt.Printf("   Change:   %s (%s)\n", utils.FormatSignedINR(q.Change), utils.FormatPct(q.ChangePercent))
		if q.PERatio != nil {
			fmt.Printf("   P/E:      %.2f\n", *q.PERatio)
		}
		if q.MarketCap != nil {
			fmt.Printf("   Mkt Cap:  %s\n", utils.FormatINRCompact(*q.MarketCap))
		}
		if q.DayRange != nil {
			fmt.Printf("   Range:    %s\n", *q.DayRange)
		}
		if res.Synthetic() {
			fmt.Fprintf(os.Stderr, "⚠️  %s\n", res.Warning)
		}
		return nil
	},
}

var ratiosCmd = &cobra.Command{
	Use:   "ratios [symbol]",
	Short: "Fetch P/E and latest earnings for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.ratios.Fetch(cmd.Context(), args[0])
		r := res.Ratios
		pe, earnings := "N/A", "N/A"
		if r.PERatio != nil {
			pe = fmt.Sprintf("%.2f", *r.PERatio)
		}
		if r.Earnings != nil {
			earnings = *r.Earnings
		}
		fmt.Printf("📊 %s (%s, %s)\n", r.Symbol, r.Source, r.ScrapingStatus)
		fmt.Printf("   P/E:      %s\n", pe)
		fmt.Printf("   Earnings: %s\n", earnings)
		if res.Synthetic() {
			fmt.Fprintf(os.Stderr, "⚠️  %s\n", res.Warning)
		}
		return nil
	},
}

func init() {
	quoteCmd.Flags().String("exchange", "NSE", "NSE or BSE")
}
