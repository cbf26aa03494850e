package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Render the joined list and re-render on every change",
	Long: `Watch renders the composition, then subscribes to it and renders
again whenever a source signals a change. File sources in the manifest
with watch: true pick up external edits; sqlite and static sources only
change through their own API, so a composition of just those renders
once and sits idle. Interrupt to exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		comp, err := loadComposition()
		if err != nil {
			return err
		}
		defer func() { _ = comp.Close() }()

		format := cfg.GetString("format")
		out := cmd.OutOrStdout()
		if err := renderListing(out, comp.Joiner, format); err != nil {
			return err
		}
		if cfg.GetBool("once") {
			return nil
		}

		// A buffered channel coalesces bursts of signals into one
		// pending re-render.
		changes := make(chan struct{}, 1)
		cancel := comp.Joiner.Subscribe(func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		})
		defer cancel()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("watching composition", "manifest", cfg.GetString("manifest"))
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changes:
				fmt.Fprintln(out)
				if err := renderListing(out, comp.Joiner, format); err != nil {
					return err
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().Bool("once", false, "Render once and exit without watching")
}
