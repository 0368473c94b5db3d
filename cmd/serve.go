package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"oauthrelay/internal/adk"
	"oauthrelay/internal/config"
	"oauthrelay/internal/deliver"
	"oauthrelay/internal/relay"
	"oauthrelay/internal/server"
	"oauthrelay/pkg/logging"
)

// errAppNameRequired is returned when serve has no agent app to deliver into.
var errAppNameRequired = errors.New("agent app name is required (adk.appName or --app)")

type serveFlags struct {
	host          string
	port          int
	upstream      string
	cleanup       string
	app           string
	user          string
	createSession bool
	noWatch       bool
}

func newServeCmd() *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Front a chat web UI and relay OAuth2 callbacks into agent sessions",
		Long: `Starts an HTTP server in front of an agent chat web UI.

Requests for the chat paths are checked for the oauth_code, oauth_state and
email parameters. When all three are present the address is cleaned up in the
browser and the callback is posted into the user's most recent agent session
as a chat message. Everything else is proxied to the upstream UI unchanged.

Provider redirects to the callback path (default /oauth/callback) are forwarded
to the first chat path with the parameters renamed.

The configuration file is watched; delivery timings, the message template and
the duplicate guard TTL are applied without a restart.

Examples:
  oauthrelay serve --upstream http://localhost:8000 --app tool_agent
  oauthrelay serve --config-path /etc/oauthrelay --log-format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.host, "host", "", "Host to bind to")
	cmd.Flags().IntVar(&f.port, "port", 0, "Port to listen on")
	cmd.Flags().StringVar(&f.upstream, "upstream", "", "URL of the chat web UI")
	cmd.Flags().StringVar(&f.cleanup, "cleanup", "", "Address cleanup mode (replaceState, redirect)")
	cmd.Flags().StringVar(&f.app, "app", "", "Agent app name")
	cmd.Flags().StringVar(&f.user, "user", "", "Chat user id the UI runs as")
	cmd.Flags().BoolVar(&f.createSession, "create-session", false, "Create a session when the user has none")
	cmd.Flags().BoolVar(&f.noWatch, "no-watch", false, "Do not reload the configuration file on change")
	return cmd
}

// apply overrides cfg with the flags that were set.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = f.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = f.port
	}
	if flags.Changed("upstream") {
		cfg.Upstream.URL = f.upstream
	}
	if flags.Changed("cleanup") {
		cfg.Server.Cleanup = config.CleanupMode(f.cleanup)
	}
	if flags.Changed("app") {
		cfg.ADK.AppName = f.app
	}
	if flags.Changed("user") {
		cfg.ADK.UserID = f.user
	}
	if flags.Changed("create-session") {
		cfg.ADK.CreateSession = f.createSession
	}
}

func runServe(cmd *cobra.Command, f *serveFlags) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	f.apply(cmd, &cfg)
	if errs := config.Validate(cfg, "flags"); errs.HasErrors() {
		return errs
	}
	if cfg.ADK.AppName == "" {
		return errAppNameRequired
	}

	opts, err := deliveryOptions(cfg.Delivery)
	if err != nil {
		return err
	}
	deliverer := deliver.New(opts)
	guard := relay.NewGuard(cfg.Delivery.GuardTTL)
	r := relay.New(deliverer, guard)

	client, err := adk.NewClient(cfg.AgentBaseURL(), adk.WithMaxRetries(cfg.ADK.MaxRetries))
	if err != nil {
		return err
	}
	adkCfg := cfg.ADK
	surface := func(*http.Request) deliver.Surface {
		return adk.NewSessionSurface(client, adkCfg.AppName, adkCfg.UserID, adkCfg.CreateSession)
	}

	srv, err := server.New(cfg.Server, cfg.Upstream.URL, r, surface)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if !f.noWatch {
		path, err := resolvedConfigPath()
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(path); statErr == nil {
			w := config.NewWatcher(config.WatcherOptions{
				ConfigPath: path,
				OnChange: func(next config.Config) {
					applyReload(deliverer, guard, next)
				},
			})
			g.Go(func() error {
				return w.Run(gctx)
			})
		} else {
			logging.Debug("CLI", "Config directory %s does not exist, not watching", path)
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// applyReload hot-swaps the settings that can change while serving.
func applyReload(d *deliver.Deliverer, g *relay.Guard, cfg config.Config) {
	opts, err := deliveryOptions(cfg.Delivery)
	if err != nil {
		logging.Error("CLI", err, "Keeping previous delivery options")
		return
	}
	d.SetOptions(opts)
	g.SetTTL(cfg.Delivery.GuardTTL)
	logging.Info("CLI", "Applied delivery options (timeout %s, settle %s) and guard TTL %s",
		cfg.Delivery.Timeout, cfg.Delivery.SettleDelay, cfg.Delivery.GuardTTL)
}
