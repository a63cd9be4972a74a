package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/mailcampaign/internal/session"
)

func newAuthCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Gmail session",
	}
	cmd.AddCommand(newAuthLoginCmd(opts))
	cmd.AddCommand(newAuthLogoutCmd(opts))
	cmd.AddCommand(newAuthStatusCmd(opts))
	return cmd
}

func newAuthLoginCmd(opts *globalOptions) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a Google account",
		Long: `Sign in with a Google account and store the token locally.

The command prints a consent URL. After granting access, the browser is
redirected to the configured redirect URL; paste either the full URL from the
address bar or just its "code" parameter. Use --code to skip the prompt.

Requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET (or [google] in the config file).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				state := uuid.NewString()
				if code == "" {
					loginURL, err := a.sc.Session().LoginURL(state)
					if err != nil {
						if errors.Is(err, session.ErrNotConfigured) {
							return fmt.Errorf("%w: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET", err)
						}
						return err
					}
					cmd.PrintErrf("Open this URL in your browser and grant access:\n\n  %s\n\n", loginURL)
					cmd.PrintErr("Paste the redirect URL or the code: ")
					input, err := readLine(cmd.InOrStdin())
					if err != nil {
						return fmt.Errorf("failed to read authorization code: %w", err)
					}
					code, err = parseAuthCode(input, state)
					if err != nil {
						return err
					}
				}

				profile, err := a.sc.Session().Login(cmd.Context(), code)
				if err != nil {
					return err
				}
				if profile.Email != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", profile.Email)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Signed in")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the consent redirect")
	return cmd
}

func newAuthLogoutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				if err := a.sc.Session().Logout(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newAuthStatusCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				profile := a.sc.Session().Profile()
				if asJSON {
					return printJSON(cmd.OutOrStdout(), profile)
				}
				switch {
				case !profile.Authenticated:
					fmt.Fprintln(cmd.OutOrStdout(), "Not signed in. Run 'mailcampaign auth login'.")
				case profile.Email == "":
					fmt.Fprintln(cmd.OutOrStdout(), "Signed in")
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", profile.Email)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

// parseAuthCode accepts a bare code or the redirect URL carrying it. When the
// URL has a state parameter it must match.
func parseAuthCode(input, state string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("authorization code is required")
	}
	if !strings.Contains(input, "://") && !strings.HasPrefix(input, "?") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	if got := q.Get("state"); got != "" && got != state {
		return "", errors.New("state mismatch in redirect URL; start the login again")
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("redirect URL has no code parameter")
	}
	return code, nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
