package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/regions"
	"github.com/aretw0/regions/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <region>",
	Short: "Print the countries of a region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		store, err := loadRegion(cmd, args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(store.Countries())
		}
		fmt.Fprint(out, tui.FormatState(store.State()))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <region> <country>",
	Short: "Print the details of one country",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadRegion(cmd, args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		c, err := store.SelectCountryByName(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.FormatCountry(c))
		return nil
	},
}

// loadRegion selects region on a fresh store and waits for its countries.
// A failed fetch is returned as an error carrying the user-facing message.
func loadRegion(cmd *cobra.Command, region string) (*regions.Store, error) {
	store := regions.New(
		regions.WithFetcher(newFetcher()),
		regions.WithLogger(logger),
	)
	if err := store.SelectRegion(cmd.Context(), region); err != nil {
		store.Close()
		return nil, err
	}
	store.Wait()

	if msg, ok := store.Error(); ok {
		store.Close()
		return nil, errors.New(msg)
	}
	return store, nil
}

func init() {
	rootCmd.AddCommand(listCmd, showCmd)
	listCmd.Flags().Bool("json", false, "Print the country list as JSON")
}
