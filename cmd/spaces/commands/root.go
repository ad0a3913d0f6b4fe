package commands

import (
	"github.com/spf13/cobra"
	"github.com/sqve/spaces/internal/config"
	"github.com/sqve/spaces/internal/errors"
	"github.com/sqve/spaces/internal/logger"
)

// Version is replaced at build time by the mage build targets.
var Version = "v0.1.0"

// Exit statuses.
const (
	ExitOK          = 0
	ExitFatal       = 1
	ExitRecoverable = 2
)

// NewRootCommand creates and configures the spaces root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "spaces",
		Short:   "Fast, isolated clones of a repository",
		Version: Version,
		Long: `Spaces creates full clones of the current repository next to it. Every
clone borrows objects from one shared mirror, so a new space is ready in
seconds and never disturbs the others.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	setupRootCommand(rootCmd)
	return rootCmd
}

// setupRootCommand configures flags, commands, and initialization for the root command
func setupRootCommand(rootCmd *cobra.Command) {
	// Errors are printed once by the caller of Execute
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	setupFlags(rootCmd)
	setupInitialization(rootCmd)
	registerCommands(rootCmd)
}

func setupFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().Bool("plain", false, "Plain output without colors or symbols")
	rootCmd.PersistentFlags().Bool("debug", false, "Print debug output")
	AddConfigFlags(rootCmd)
}

// setupInitialization configures logging before any command runs
func setupInitialization(rootCmd *cobra.Command) {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		plain, _ := cmd.Flags().GetBool("plain")
		debug, _ := cmd.Flags().GetBool("debug")
		logger.Init(plain || config.EnvPlain(), debug || config.EnvDebug())
	}
}

func registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(
		NewNewCmd(),
		NewListCmd(),
		NewGoCmd(),
		NewRunCmd(),
		NewCopyCmd(),
		NewMirrorsCmd(),
		NewRemoveCmd(),
		NewConfigCmd(),
		NewDoctorCmd(),
		NewCleanCmd(),
	)
}

// ExitCode maps an error returned by Execute to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Code > 0 {
			return exitErr.Code
		}
		return ExitFatal
	}

	if errors.IsRecoverable(err) {
		return ExitRecoverable
	}
	return ExitFatal
}

// ReportError prints err unless it only carries a passed-through exit status.
func ReportError(err error) {
	var exitErr *ExitError
	if err == nil || errors.As(err, &exitErr) {
		return
	}
	logger.Error("%v", err)
}
