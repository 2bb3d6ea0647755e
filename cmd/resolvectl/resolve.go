package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"stream-resolver/internal/adapters/upstream"
	"stream-resolver/internal/domain"
	"stream-resolver/internal/usecases"
)

var (
	flagReferer  string
	flagLinkBase string
	flagName     string
	flagPoster   string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <service> <id>",
	Short: "Acquire a token and print the proxied playlist URL",
	Args:  cobra.ExactArgs(2),
	RunE:  resolveRun,
}

var linkCmd = &cobra.Command{
	Use:   "link <service> <id>",
	Short: "Print the shareable resolve link, and its history record with --name",
	Args:  cobra.ExactArgs(2),
	RunE:  linkRun,
}

func init() {
	resolveCmd.Flags().StringVarP(&flagReferer, "referer", "r", "", "Referer passed to the stream proxy (default: the service's)")

	linkCmd.Flags().StringVar(&flagLinkBase, "base", "", "Resolve endpoint (default: http://localhost:<port>/resolve)")
	linkCmd.Flags().StringVar(&flagName, "name", "", "Title name; prints a movie history record when set")
	linkCmd.Flags().StringVar(&flagPoster, "poster", "", "Poster URL for the history record")
}

func resolveRun(cmd *cobra.Command, args []string) error {
	client := upstream.NewHTTPClient(cfg.Upstream.TokenTimeout)
	uc := usecases.NewResolveLinkUseCase(
		usecases.NewServiceCatalog(cfg.Upstream),
		upstream.NewQueryTokenSource(client, cfg.Upstream),
		cfg.Upstream.ProxyBase,
	)

	link, err := uc.Execute(cmd.Context(), domain.ResolutionRequest{
		Service: args[0],
		ID:      args[1],
		Referer: flagReferer,
	})
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(cmd, map[string]string{"url": link})
	}
	fmt.Fprintln(cmd.OutOrStdout(), link)
	return nil
}

func linkRun(cmd *cobra.Command, args []string) error {
	service, err := domain.ParseService(args[0])
	if err != nil {
		return err
	}

	base := flagLinkBase
	if base == "" {
		base = "http://localhost:" + cfg.Port + "/resolve"
	}
	link := usecases.BuildResolveLink(base, string(service), args[1])

	if flagName == "" {
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	}

	item := &domain.MovieHistory{
		HistoryHeader: domain.HistoryHeader{
			ID:       args[1],
			Name:     flagName,
			Provider: string(service),
			Poster:   flagPoster,
		},
		Link: link,
	}
	data, err := domain.EncodeHistoryItem(item)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
