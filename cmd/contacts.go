package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/mailcampaign/internal/store"
	"github.com/teemow/mailcampaign/internal/tools/batch"
)

func newContactsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"contact"},
		Short:   "Manage contacts",
	}
	cmd.AddCommand(newContactsListCmd(opts))
	cmd.AddCommand(newContactsAddCmd(opts))
	cmd.AddCommand(newContactsUpdateCmd(opts))
	cmd.AddCommand(newContactsDeleteCmd(opts))
	cmd.AddCommand(newContactsImportCmd(opts))
	cmd.AddCommand(newContactsExportCmd(opts))
	return cmd
}

func newContactsListCmd(opts *globalOptions) *cobra.Command {
	var (
		search  string
		groupID string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				contacts, err := a.sc.Directory().SearchContacts(cmd.Context(), search)
				if err != nil {
					return err
				}
				if groupID != "" {
					filtered := contacts[:0]
					for _, c := range contacts {
						if c.InGroup(groupID) {
							filtered = append(filtered, c)
						}
					}
					contacts = filtered
				}
				if asJSON {
					if contacts == nil {
						contacts = []store.Contact{}
					}
					return printJSON(cmd.OutOrStdout(), contacts)
				}
				return printContacts(cmd.OutOrStdout(), contacts)
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only contacts whose name or email contains this text")
	cmd.Flags().StringVar(&groupID, "group", "", "Only members of this group")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printContacts(w io.Writer, contacts []store.Contact) error {
	if len(contacts) == 0 {
		_, err := fmt.Fprintln(w, "No contacts.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tGROUPS")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone, strings.Join(c.GroupIDs, ","))
	}
	return tw.Flush()
}

func newContactsAddCmd(opts *globalOptions) *cobra.Command {
	var in store.ContactInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				c, err := a.sc.Directory().AddContact(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added contact %s (%s)\n", c.Name, c.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Phone number")
	cmd.Flags().StringSliceVar(&in.GroupIDs, "groups", nil, "Group IDs, comma-separated")
	return cmd
}

func newContactsUpdateCmd(opts *globalOptions) *cobra.Command {
	var (
		name, email, phone string
		groups             []string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a contact",
		Long: `Update the given fields of a contact. Unset flags are left unchanged;
--groups="" removes the contact from every group.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch store.ContactPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("email") {
				patch.Email = &email
			}
			if flags.Changed("phone") {
				patch.Phone = &phone
			}
			if flags.Changed("groups") {
				if groups == nil {
					groups = []string{}
				}
				patch.GroupIDs = &groups
			}
			return withApp(cmd, opts, func(a *app) error {
				c, err := a.sc.Directory().UpdateContact(cmd.Context(), args[0], patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated contact %s (%s)\n", c.Name, c.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&email, "email", "", "New email address")
	cmd.Flags().StringVar(&phone, "phone", "", "New phone number")
	cmd.Flags().StringSliceVar(&groups, "groups", nil, "Replacement group IDs, comma-separated")
	return cmd
}

func newContactsDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete contacts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				dir := a.sc.Directory()
				results := batch.ProcessBatch(cmd.Context(), args, func(ctx context.Context, id string) (string, error) {
					removed, err := dir.DeleteContact(ctx, id)
					if err != nil {
						return "", err
					}
					if !removed {
						return "", store.ErrNotFound
					}
					return "deleted", nil
				})
				for _, r := range results {
					if r.Status == batch.StatusSuccess {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.ID, r.Result)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.ID, r.Error)
					}
				}
				if summary := batch.Summarize(results); summary.Failed > 0 {
					return fmt.Errorf("%d of %d contacts could not be deleted", summary.Failed, summary.Total)
				}
				return nil
			})
		},
	}
}

func newContactsImportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import contacts from CSV",
		Long: `Import contacts from a CSV file with the columns Name,Email,Phone,Groups.
The first row is a header. Group IDs are separated by ";". Rows without a name
and a valid email are skipped. Use "-" to read standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}
			return withApp(cmd, opts, func(a *app) error {
				res, err := a.sc.Directory().ImportCSV(cmd.Context(), r)
				if err != nil {
					return fmt.Errorf("import stopped after %d contacts: %w", res.Imported, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d contacts, skipped %d rows\n", res.Imported, res.Skipped)
				return nil
			})
		},
	}
}

func newContactsExportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export contacts as CSV",
		Long:  `Export every contact as CSV (Name,Email,Phone,Groups) to a file, or to standard output.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				if len(args) == 0 || args[0] == "-" {
					return a.sc.Directory().ExportCSV(cmd.Context(), cmd.OutOrStdout())
				}
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", args[0], err)
				}
				if err := a.sc.Directory().ExportCSV(cmd.Context(), f); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				cmd.PrintErrf("Contacts exported to %s\n", args[0])
				return nil
			})
		},
	}
}
