package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// newVersionCmd reports the relay build. --short prints the bare version for scripts
// that compare it against a release tag.
func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the oauthrelay build version",
		Long: `Show the oauthrelay release together with the Go toolchain and platform it
was built for. Include this output when reporting delivery problems.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "oauthrelay %s (%s %s/%s)\n",
				rootCmd.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
