package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewGoCmd creates the go command
func NewGoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "go <name>",
		Short: "Print the path of a space",
		Long: `Print the path of a space on stdout, for use with cd. Use 1 or main for
the repository itself.

Examples:
  cd "$(spaces go feat-auth)"  # Enter a space
  cd "$(spaces go 1)"          # Back to the main repository`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFirstSpace,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGo(cmd, args[0])
		},
	}

	cmd.Flags().BoolP("help", "h", false, "Help for go")

	return cmd
}

func runGo(cmd *cobra.Command, name string) error {
	m, err := loadManager(cmd)
	if err != nil {
		return err
	}

	sp, err := m.Resolve(commandContext(cmd), name)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Space: %s\n", sp.Name)
	if sp.Branch != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Branch: %s\n", sp.Branch)
	}
	fmt.Fprintln(cmd.OutOrStdout(), sp.Path)
	return nil
}
