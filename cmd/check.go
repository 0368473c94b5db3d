package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"oauthrelay/internal/config"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and show the effective settings",
		Long: `Loads config.yaml from the configuration directory, applies the defaults and
reports every validation problem at once. On success the effective settings
are printed.

Examples:
  oauthrelay check
  oauthrelay check --config-path /etc/oauthrelay`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		var coll *config.ConfigurationErrorCollection
		if errors.As(err, &coll) {
			fmt.Fprintln(cmd.ErrOrStderr(), coll.GetDetailedReport())
		}
		var single config.ConfigurationError
		if errors.As(err, &single) {
			fmt.Fprintln(cmd.ErrOrStderr(), single.DetailedError())
		}
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("SETTING"), text.FgHiCyan.Sprint("VALUE")})
	t.AppendRows([]table.Row{
		{"server.listen", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)},
		{"server.chatPaths", strings.Join(cfg.Server.ChatPaths, ", ")},
		{"server.cleanup", cfg.Server.Cleanup},
		{"server.callbackPath", cfg.Server.CallbackPath},
		{"upstream.url", orUnset(cfg.Upstream.URL)},
		{"adk.baseUrl", orUnset(cfg.AgentBaseURL())},
		{"adk.appName", orUnset(cfg.ADK.AppName)},
		{"adk.userId", cfg.ADK.UserID},
		{"delivery.pollInterval", cfg.Delivery.PollInterval},
		{"delivery.timeout", cfg.Delivery.Timeout},
		{"delivery.settleDelay", cfg.Delivery.SettleDelay},
		{"delivery.guardTtl", cfg.Delivery.GuardTTL},
	})
	t.Render()

	fmt.Fprintln(cmd.OutOrStdout(), text.FgGreen.Sprint("Configuration is valid"))
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return text.FgYellow.Sprint("(unset)")
	}
	return s
}
