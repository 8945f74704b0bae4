package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/amaumene/aniwrap/internal/controllers"
	"github.com/amaumene/aniwrap/internal/models"
	"github.com/amaumene/aniwrap/internal/services/anilist"
	"github.com/spf13/cobra"
)

func newWrappedCmd() *cobra.Command {
	var (
		year     int
		provider string
		raw      bool
	)

	cmd := &cobra.Command{
		Use:   "wrapped <username>",
		Short: "Compute a user's wrapped and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := models.ParseProvider(provider)
			if err != nil {
				return err
			}

			cfg, logger, err := setup(os.Stderr)
			if err != nil {
				return err
			}

			client, err := anilist.NewClient(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize AniList client: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ctrl := controllers.NewWrappedController(client, logger)
			return printWrapped(ctx, cmd.OutOrStdout(), ctrl, p, args[0], year, raw)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "calendar year to summarise (default: current year)")
	cmd.Flags().StringVar(&provider, "provider", string(models.ProviderAnilist), "tracker the username belongs to")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the upstream watch history instead of the summary")
	return cmd
}

func printWrapped(ctx context.Context, out io.Writer, ctrl *controllers.WrappedController, provider models.Provider, username string, year int, raw bool) error {
	var v any
	if raw {
		doc, err := ctrl.WatchHistory(ctx, provider, username, year)
		if err != nil {
			return err
		}
		v = doc
	} else {
		wrapped, err := ctrl.Wrapped(ctx, provider, username, year)
		if err != nil {
			return err
		}
		v = wrapped.Stats
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
