package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stream-resolver/internal/adapters/scraper"
	"stream-resolver/internal/adapters/upstream"
	"stream-resolver/internal/usecases"
)

var top10Cmd = &cobra.Command{
	Use:   "top10",
	Short: "Fetch the listing page and print its top 10 row",
	Args:  cobra.NoArgs,
	RunE:  top10Run,
}

func top10Run(cmd *cobra.Command, args []string) error {
	selectors, err := scraper.LoadSelectors(cfg.Listing.SelectorsPath)
	if err != nil {
		return fmt.Errorf("loading selectors: %w", err)
	}
	defer selectors.Close()

	client := upstream.NewHTTPClient(cfg.Upstream.TokenTimeout + cfg.Listing.Timeout)
	uc := usecases.NewGetTopTenUseCase(
		upstream.NewCookieSource(client, cfg.Upstream),
		upstream.NewListingClient(client, cfg.Upstream, cfg.Listing),
		scraper.NewTopTenParser(selectors, cfg.Listing.URL),
	)

	items, err := uc.Execute(cmd.Context())
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(cmd, items)
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No top 10 entries found.")
		return nil
	}
	for i, it := range items {
		fmt.Fprintf(cmd.OutOrStdout(), "%2d  %-10s  %s\n", i+1, it.ID, it.Poster)
	}
	return nil
}
