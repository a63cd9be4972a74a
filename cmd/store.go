package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/teemow/mailcampaign/internal/logging"
	"github.com/teemow/mailcampaign/internal/store"
)

func newStoreCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Maintain the local data store",
	}
	cmd.AddCommand(newStoreResetCmd(opts))
	cmd.AddCommand(newStorePingCmd(opts))
	return cmd
}

func newStoreResetCmd(opts *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset <collection>",
		Short: "Delete a stored collection",
		Long: `Delete every record of one collection: contacts, groups or campaigns.

Use this to recover from a collection that can no longer be decoded. Groups
are re-seeded with the defaults on the next read.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{store.CollectionContacts, store.CollectionGroups, store.CollectionCampaigns},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", args[0])
			}
			return withApp(cmd, opts, func(a *app) error {
				if err := a.sc.Store().Reset(cmd.Context(), args[0]); err != nil {
					return err
				}
				logging.WithOperation(a.sc.Logger(), "store.reset").Info("collection reset",
					slog.String("collection", args[0]), logging.Backend(a.cfg.Storage.Backend))
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}

func newStorePingCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the storage backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				if err := a.sc.Ping(cmd.Context()); err != nil {
					return fmt.Errorf("storage backend %s unreachable: %w", a.cfg.Storage.Backend, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Storage backend %s is reachable\n", a.cfg.Storage.Backend)
				return nil
			})
		},
	}
}
