package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"oauthrelay/internal/config"
	"oauthrelay/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfigError indicates the configuration file could not be loaded.
	ExitCodeConfigError = 2
	// ExitCodeNotDelivered indicates a detected callback could not be delivered.
	ExitCodeNotDelivered = 3
)

// errNotDelivered is returned by deliver when the chat targets never appeared.
var errNotDelivered = errors.New("callback was not delivered")

// Persistent flags shared by all commands.
var (
	configPath string
	logLevel   string
	logFormat  string
)

// rootCmd represents the base command for the oauthrelay application.
var rootCmd = &cobra.Command{
	Use:   "oauthrelay",
	Short: "Relay OAuth2 redirects into an agent chat conversation",
	Long: `oauthrelay catches OAuth2 redirects that land on a chat web UI, cleans the
authorization code out of the browser address and posts it into the user's chat
as a message, so the conversational agent can finish the token exchange.

It runs as an HTTP front for the chat UI (serve) or against a single page
document (deliver).`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "oauthrelay version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var cfgErr config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return ExitCodeConfigError
	}

	var cfgErrs *config.ConfigurationErrorCollection
	if errors.As(err, &cfgErrs) {
		return ExitCodeConfigError
	}

	if errors.Is(err, errNotDelivered) {
		return ExitCodeNotDelivered
	}

	return ExitCodeError
}

// loadConfig loads the configuration selected by --config-path and initializes
// logging from it. Flags take precedence over the file.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.GetDefaultConfigPath()
		if err != nil {
			return config.Config{}, err
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.Config{}, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = logFormat
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid --log-level: %w", err)
	}
	format := logging.Format(cfg.Logging.Format)
	if format != logging.FormatJSON {
		format = logging.FormatText
	}
	logging.Init(level, format, cmd.ErrOrStderr())

	return cfg, nil
}

// resolvedConfigPath returns the directory config is read from.
func resolvedConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetDefaultConfigPath()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", "", "Directory containing config.yaml (default: ~/.config/oauthrelay)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDeliverCmd())
	rootCmd.AddCommand(newAuthURLCmd())
	rootCmd.AddCommand(newCheckCmd())
}
