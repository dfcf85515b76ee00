package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/upshift-tools/upshift/pkg/config"
	"github.com/upshift-tools/upshift/pkg/util"
)

var (
	verbose     bool
	profileName string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "upshift",
		Short: "Client for the Upshift Java modernization service",
		Long: `Upshift - a command line client for the Upshift service.

Upshift packages a Java project, uploads it, and drives a remote
transformation job that upgrades the code to a newer Java version.
The result comes back as a reviewable patch.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.InitLogger(verbose)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", config.DefaultProfileName, "Profile name or path to a profile file")

	// Add subcommands
	rootCmd.AddCommand(NewLoginCmd())
	rootCmd.AddCommand(NewLogoutCmd())
	rootCmd.AddCommand(NewWhoamiCmd())
	rootCmd.AddCommand(NewConfigureCmd())
	rootCmd.AddCommand(NewTransformCmd())
	rootCmd.AddCommand(NewWorkspaceCmd())
	rootCmd.AddCommand(NewJobsCmd())
	rootCmd.AddCommand(NewCleanCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the root command. An interrupt cancels the command
// context so a watched job can be stopped cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
