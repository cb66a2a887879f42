package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seenimoa/nsefolio/internal/validator"
	"github.com/seenimoa/nsefolio/pkg/models"
	"github.com/seenimoa/nsefolio/pkg/utils"
)

// --- Holdings Commands ---

var holdingsCmd = &cobra.Command{
	Use:     "holdings",
	Aliases: []string{"h"},
	Short:   "List and edit portfolio holdings",
}

var holdingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List holdings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		holdings, err := a.store.List(cmd.Context())
		if err != nil {
			return err
		}
		printHoldings(holdings)
		return nil
	},
}

var holdingsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a holding",
	Example: `  nsefolio holdings add --symbol TCS --name "Tata Consultancy Services" \
    --sector Technology --price 3200 --qty 10 --exchange NSE`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		symbol, _ := f.GetString("symbol")
		name, _ := f.GetString("name")
		sector, _ := f.GetString("sector")
		price, _ := f.GetFloat64("price")
		qty, _ := f.GetInt64("qty")
		exch, _ := f.GetString("exchange")

		exchange, err := models.ParseExchange(exch)
		if err != nil {
			return err
		}
		if name == "" {
			name = symbol
		}
		in := models.HoldingInput{
			Particulars:   name,
			Sector:        sector,
			PurchasePrice: price,
			Quantity:      qty,
			Exchange:      exchange,
			Symbol:        symbol,
		}
		if err := validator.Struct(in); err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		h, err := a.store.Add(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Added %s (%s) on %s, id %s\n", h.Particulars, h.Symbol, h.Exchange, h.ID)
		return nil
	},
}

var holdingsUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update fields of a holding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := patchFromFlags(cmd)
		if err != nil {
			return err
		}
		if err := validator.Struct(patch); err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		h, err := a.store.Update(cmd.Context(), args[0], patch)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Updated %s (%s): %d @ %s\n", h.Particulars, h.Symbol, h.Quantity, utils.FormatINR(h.PurchasePrice))
		return nil
	},
}

var holdingsRemoveCmd = &cobra.Command{
	Use:     "remove [id]",
	Aliases: []string{"rm"},
	Short:   "Remove a holding",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.store.Remove(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !removed {
			fmt.Printf("No holding with id %s\n", args[0])
			return nil
		}
		fmt.Printf("🗑️  Removed %s\n", args[0])
		return nil
	},
}

var holdingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every holding",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to clear the portfolio without --yes")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("🗑️  Portfolio cleared")
		return nil
	},
}

func init() {
	holdingsCmd.AddCommand(holdingsListCmd, holdingsAddCmd, holdingsUpdateCmd, holdingsRemoveCmd, holdingsClearCmd)

	for _, c := range []*cobra.Command{holdingsAddCmd, holdingsUpdateCmd} {
		c.Flags().String("symbol", "", "ticker symbol, e.g. TCS")
		c.Flags().String("name", "", "display name")
		c.Flags().String("sector", "", "sector label")
		c.Flags().Float64("price", 0, "purchase price per share (₹)")
		c.Flags().Int64("qty", 0, "number of shares")
		c.Flags().String("exchange", "", "NSE or BSE")
	}
	_ = holdingsAddCmd.MarkFlagRequired("symbol")
	_ = holdingsAddCmd.MarkFlagRequired("sector")
	_ = holdingsAddCmd.MarkFlagRequired("price")
	_ = holdingsAddCmd.MarkFlagRequired("qty")

	holdingsClearCmd.Flags().Bool("yes", false, "confirm clearing every holding")
}

// patchFromFlags builds a patch from the flags the user set explicitly.
func patchFromFlags(cmd *cobra.Command) (models.HoldingPatch, error) {
	f := cmd.Flags()
	var p models.HoldingPatch

	if f.Changed("symbol") {
		v, _ := f.GetString("symbol")
		p.Symbol = &v
	}
	if f.Changed("name") {
		v, _ := f.GetString("name")
		p.Particulars = &v
	}
	if f.Changed("sector") {
		v, _ := f.GetString("sector")
		p.Sector = &v
	}
	if f.Changed("price") {
		v, _ := f.GetFloat64("price")
		p.PurchasePrice = &v
	}
	if f.Changed("qty") {
		v, _ := f.GetInt64("qty")
		p.Quantity = &v
	}
	if f.Changed("exchange") {
		v, _ := f.GetString("exchange")
		e, err := models.ParseExchange(v)
		if err != nil {
			return p, err
		}
		p.Exchange = &e
	}
	if p == (models.HoldingPatch{}) {
		return p, fmt.Errorf("nothing to update; pass at least one of --symbol, --name, --sector, --price, --qty, --exchange")
	}
	return p, nil
}

func printHoldings(holdings []models.Holding) {
	if len(holdings) == 0 {
		fmt.Println("No holdings yet. Add one with `nsefolio holdings add`.")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSYMBOL\tEXCH\tNAME\tSECTOR\tQTY\tPRICE\tINVESTMENT")
	for _, h := range holdings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			h.ID, h.Symbol, h.Exchange, h.Particulars, h.Sector, h.Quantity,
			utils.FormatINR(h.PurchasePrice), utils.FormatINR(h.Investment()))
	}
	tw.Flush()
}
