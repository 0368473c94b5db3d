package cmd

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"oauthrelay/internal/callback"
	"oauthrelay/internal/config"
)

type authURLFlags struct {
	clientID    string
	redirectURL string
	scopes      []string
}

func newAuthURLCmd() *cobra.Command {
	f := &authURLFlags{}
	cmd := &cobra.Command{
		Use:   "authurl <email>",
		Short: "Print a provider authorization URL that carries the user's identity",
		Long: `Builds the OAuth2 authorization URL for a user. The state parameter is a
random nonce followed by "|" and the email, so the callback can be attributed
to the user without the provider echoing the email back.

The redirect URL defaults to the callback path of the local serve front.

Examples:
  oauthrelay authurl alice@example.com --client-id 1234.apps.googleusercontent.com
  oauthrelay authurl alice@example.com --scope openid --scope email`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthURL(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.clientID, "client-id", "", "OAuth client ID (overrides oauth.clientId)")
	cmd.Flags().StringVar(&f.redirectURL, "redirect-url", "", "Redirect URL registered with the provider (overrides oauth.redirectUrl)")
	cmd.Flags().StringSliceVar(&f.scopes, "scope", nil, "Scope to request; repeatable (overrides oauth.scopes)")
	return cmd
}

func runAuthURL(cmd *cobra.Command, email string, f *authURLFlags) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	oauthCfg := oauth2Config(cfg)
	if cmd.Flags().Changed("client-id") {
		oauthCfg.ClientID = f.clientID
	}
	if cmd.Flags().Changed("redirect-url") {
		oauthCfg.RedirectURL = f.redirectURL
	}
	if cmd.Flags().Changed("scope") {
		oauthCfg.Scopes = f.scopes
	}

	authURL, state, err := callback.AuthCodeURL(oauthCfg, email)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, authURL)
	fmt.Fprintf(cmd.ErrOrStderr(), "state: %s\n", state)
	return nil
}

// oauth2Config builds the provider configuration. Only the authorization side is
// used; oauthrelay never exchanges the code itself.
func oauth2Config(cfg config.Config) *oauth2.Config {
	redirect := cfg.OAuth.RedirectURL
	if redirect == "" {
		redirect = "http://" + net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)) + cfg.Server.CallbackPath
	}
	return &oauth2.Config{
		ClientID: cfg.OAuth.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.OAuth.AuthURL,
			TokenURL: cfg.OAuth.TokenURL,
		},
		RedirectURL: redirect,
		Scopes:      cfg.OAuth.Scopes,
	}
}
