package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/mailcampaign/internal/campaign"
	"github.com/teemow/mailcampaign/internal/server"
	"github.com/teemow/mailcampaign/internal/store"
)

// messageFlags are the composition flags shared by send and test.
type messageFlags struct {
	title       string
	message     string
	messageFile string
	template    string
}

func (f *messageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Subject line")
	cmd.Flags().StringVar(&f.message, "message", "", "Message body")
	cmd.Flags().StringVar(&f.messageFile, "message-file", "", "Read the message body from a file (\"-\" for stdin)")
	cmd.Flags().StringVar(&f.template, "template", "", "Built-in template ID or name for a missing title or message")
	cmd.MarkFlagsMutuallyExclusive("message", "message-file")
}

// resolve returns the title and message, reading the message file and
// falling back to the template.
func (f *messageFlags) resolve(stdin io.Reader) (string, string, error) {
	title, message := f.title, f.message
	if f.messageFile != "" {
		var (
			data []byte
			err  error
		)
		if f.messageFile == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(f.messageFile)
		}
		if err != nil {
			return "", "", fmt.Errorf("failed to read message: %w", err)
		}
		message = string(data)
	}
	if f.template != "" {
		tmpl, ok := campaign.TemplateByID(f.template)
		if !ok {
			return "", "", fmt.Errorf("template %q: %w", f.template, store.ErrNotFound)
		}
		if strings.TrimSpace(title) == "" {
			title = tmpl.Subject
		}
		if strings.TrimSpace(message) == "" {
			message = tmpl.Body
		}
	}
	return title, message, nil
}

func newCampaignsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "campaigns",
		Aliases: []string{"campaign"},
		Short:   "Send campaigns and browse the history",
	}
	cmd.AddCommand(newCampaignsSendCmd(opts))
	cmd.AddCommand(newCampaignsTestCmd(opts))
	cmd.AddCommand(newCampaignsListCmd(opts))
	cmd.AddCommand(newCampaignsStatsCmd(opts))
	cmd.AddCommand(newCampaignsDeleteCmd(opts))
	cmd.AddCommand(newCampaignsTemplatesCmd())
	return cmd
}

func newCampaignsSendCmd(opts *globalOptions) *cobra.Command {
	var (
		msg     messageFlags
		groupID string
		mode    string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a campaign to a group",
		Long: `Send a campaign to every contact of a group through the signed-in Gmail account.

Modes:
  individual  one email per contact, greeting them by name (default)
  bulk        a single email addressed to every contact

A campaign that reaches at least one contact is recorded in the history. If
every email fails, nothing is recorded and the command exits with an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title, message, err := msg.resolve(cmd.InOrStdin())
			if err != nil {
				return err
			}

			a, err := openApp(cmd, opts, server.Options{
				OnStatusChange: func(s campaign.Status) {
					if s != campaign.StatusIdle {
						cmd.PrintErrf("status: %s\n", s)
					}
				},
			})
			if err != nil {
				return err
			}
			defer a.Close()

			sendMode := a.cfg.Mode()
			if cmd.Flags().Changed("mode") {
				if sendMode, err = campaign.ParseMode(mode); err != nil {
					return err
				}
			}

			res, err := a.sc.Workflow().Send(cmd.Context(), campaign.Request{
				Title:   title,
				Message: message,
				GroupID: groupID,
				Mode:    sendMode,
			})
			if res != nil {
				if asJSON {
					if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
						return perr
					}
				} else {
					printSendResult(cmd.OutOrStdout(), res)
				}
			}
			if errors.Is(err, campaign.ErrNotAuthenticated) {
				return fmt.Errorf("%w: run 'mailcampaign auth login' first", err)
			}
			return err
		},
	}

	msg.register(cmd)
	cmd.Flags().StringVarP(&groupID, "group", "g", "", "Target group ID (required)")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(campaign.DefaultMode), "Send mode: individual or bulk")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func printSendResult(w io.Writer, res *campaign.Result) {
	fmt.Fprintln(w, res.Summary())
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  failed: %s: %s\n", f.Email, f.Error)
	}
	if res.Campaign != nil {
		fmt.Fprintf(w, "Recorded campaign %s\n", res.Campaign.ID)
	}
}

func newCampaignsTestCmd(opts *globalOptions) *cobra.Command {
	var (
		msg messageFlags
		to  string
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test email",
		Long:  `Send the campaign preview to a single address. The subject is prefixed with "[TEST] " and nothing is recorded.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title, message, err := msg.resolve(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app) error {
				id, err := a.sc.Workflow().SendTest(cmd.Context(), campaign.TestRequest{To: to, Title: title, Message: message})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Test email sent to %s (message id %s)\n", strings.TrimSpace(to), id)
				return nil
			})
		},
	}

	msg.register(cmd)
	cmd.Flags().StringVar(&to, "to", "", "Recipient address (required)")
	return cmd
}

func newCampaignsListCmd(opts *globalOptions) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sent campaigns, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				campaigns, err := a.sc.Store().ListCampaigns(cmd.Context())
				if err != nil {
					return err
				}
				if limit > 0 && limit < len(campaigns) {
					campaigns = campaigns[:limit]
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), campaigns)
				}
				return printCampaigns(cmd.OutOrStdout(), campaigns)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many campaigns")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printCampaigns(w io.Writer, campaigns []store.Campaign) error {
	if len(campaigns) == 0 {
		_, err := fmt.Fprintln(w, "No campaigns yet.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSENT\tSTATUS\tGROUP\tRECIPIENTS\tTITLE")
	for _, c := range campaigns {
		sent := "-"
		if c.SentAt != nil {
			sent = c.SentAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", c.ID, sent, c.Status, c.GroupName, c.RecipientCount, c.Title)
	}
	return tw.Flush()
}

func newCampaignsStatsCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show campaign totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				campaigns, err := a.sc.Store().ListCampaigns(cmd.Context())
				if err != nil {
					return err
				}
				stats := campaign.ComputeStats(campaigns)
				if asJSON {
					return printJSON(cmd.OutOrStdout(), stats)
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintf(tw, "Campaigns\t%d\n", stats.Total)
				fmt.Fprintf(tw, "Sent\t%d\n", stats.Sent)
				fmt.Fprintf(tw, "Failed\t%d\n", stats.Failed)
				fmt.Fprintf(tw, "Drafts\t%d\n", stats.Draft)
				fmt.Fprintf(tw, "Recipients reached\t%d\n", stats.TotalRecipients)
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newCampaignsDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a campaign from the history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				removed, err := a.sc.Store().DeleteCampaign(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("campaign %s: %w", args[0], store.ErrNotFound)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted campaign %s\n", args[0])
				return nil
			})
		},
	}
}

func newCampaignsTemplatesCmd() *cobra.Command {
	var (
		asJSON bool
		full   bool
	)

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the built-in templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates := campaign.Templates()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), templates)
			}
			w := cmd.OutOrStdout()
			if full {
				for _, t := range templates {
					fmt.Fprintf(w, "[%s] %s (%s)\nSubject: %s\n\n%s\n\n", t.ID, t.Name, t.Category, t.Subject, t.Body)
				}
				return nil
			}
			tw := newTable(w)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tSUBJECT")
			for _, t := range templates {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Category, t.Subject)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVar(&full, "full", false, "Print the template bodies")
	return cmd
}
