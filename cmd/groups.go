package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/mailcampaign/internal/store"
)

func newGroupsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "Manage contact groups",
	}
	cmd.AddCommand(newGroupsListCmd(opts))
	cmd.AddCommand(newGroupsAddCmd(opts))
	cmd.AddCommand(newGroupsUpdateCmd(opts))
	cmd.AddCommand(newGroupsDeleteCmd(opts))
	cmd.AddCommand(newGroupsMembersCmd(opts))
	cmd.AddCommand(newGroupsResyncCmd(opts))
	return cmd
}

func newGroupsListCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				groups, err := a.sc.Directory().Groups(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), groups)
				}
				return printGroups(cmd.OutOrStdout(), groups)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printGroups(w io.Writer, groups []store.Group) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "No groups.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tICON\tNAME\tCONTACTS\tDESCRIPTION")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", g.ID, g.Icon, g.Name, g.ContactCount, g.Description)
	}
	return tw.Flush()
}

func newGroupsAddCmd(opts *globalOptions) *cobra.Command {
	var in store.GroupInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				g, err := a.sc.Directory().AddGroup(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created group %s (%s)\n", g.Name, g.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Group name (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	cmd.Flags().StringVar(&in.Icon, "icon", "👥", "Icon, usually an emoji")
	return cmd
}

func newGroupsUpdateCmd(opts *globalOptions) *cobra.Command {
	var name, description, icon string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a group",
		Long:  `Update the given fields of a group. Past campaigns keep the group name they were sent with.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch store.GroupPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("icon") {
				patch.Icon = &icon
			}
			return withApp(cmd, opts, func(a *app) error {
				g, err := a.sc.Directory().UpdateGroup(cmd.Context(), args[0], patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated group %s (%s)\n", g.Name, g.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&icon, "icon", "", "New icon")
	return cmd
}

func newGroupsDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a group",
		Long:  `Delete a group and remove it from every contact. The contacts are kept.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				removed, err := a.sc.Directory().DeleteGroup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("group %s: %w", args[0], store.ErrNotFound)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted group %s\n", args[0])
				return nil
			})
		},
	}
}

func newGroupsMembersCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "members <id>",
		Short: "List the contacts of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				dir := a.sc.Directory()
				if _, err := dir.Group(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("group %s: %w", args[0], err)
				}
				members, err := dir.ContactsOfGroup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					if members == nil {
						members = []store.Contact{}
					}
					return printJSON(cmd.OutOrStdout(), members)
				}
				return printContacts(cmd.OutOrStdout(), members)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newGroupsResyncCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resync [id...]",
		Short: "Recompute group contact counts",
		Long:  `Recompute the contact count of the given groups, or of every group, from contact memberships.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				dir := a.sc.Directory()
				if err := dir.Resync(cmd.Context(), args...); err != nil {
					return err
				}
				groups, err := dir.Groups(cmd.Context())
				if err != nil {
					return err
				}
				return printGroups(cmd.OutOrStdout(), groups)
			})
		},
	}
}
