package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sqve/spaces/internal/logger"
	"github.com/sqve/spaces/internal/space"
	"github.com/sqve/spaces/internal/styles"
)

// NewNewCmd creates the new command
func NewNewCmd() *cobra.Command {
	var opts space.NewOptions

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a space",
		Long: `Create a space: a full clone of the repository that borrows objects from
the shared mirror. The space path is printed on stdout.

Without --branch the clone keeps the default branch. A branch that exists on
origin or locally is checked out; otherwise it is created from --from, or
from the default branch.

Examples:
  spaces new feat-auth                   # Clone on the default branch
  spaces new auth -b feat/auth           # Check out or create feat/auth
  spaces new fix -b fix/123 --from v1.2  # New branch from a tag
  cd "$(spaces new scratch --no-fetch)"  # Skip fetching an existing mirror`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: noCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Name = args[0]
			return runNew(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Branch, "branch", "b", "", "Branch to check out or create")
	cmd.Flags().StringVar(&opts.From, "from", "", "Base ref for a new branch")
	cmd.Flags().BoolVar(&opts.NoFetch, "no-fetch", false, "Do not fetch an existing mirror")
	cmd.Flags().BoolVar(&opts.NoCopy, "no-copy", false, "Do not copy files into the space")
	cmd.Flags().BoolP("help", "h", false, "Help for new")

	return cmd
}

func runNew(cmd *cobra.Command, opts space.NewOptions) error {
	m, err := loadManager(cmd)
	if err != nil {
		return err
	}

	sp, err := m.New(commandContext(cmd), opts)
	if sp == nil {
		return err
	}

	if err == nil {
		branch := sp.Branch
		if branch == "" {
			branch = sp.BaseRef
		}
		logger.Success("Created space %s on %s", styles.Render(&styles.Space, sp.Name), branch)
	}
	fmt.Fprintln(cmd.OutOrStdout(), sp.Path)
	return err
}
