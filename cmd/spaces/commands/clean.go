package commands

import (
	"github.com/spf13/cobra"
	"github.com/sqve/spaces/internal/logger"
)

// NewCleanCmd creates the clean command
func NewCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftovers from the clones directory",
		Long: `Remove empty directories left in the clones directory. Lock files and
spaces themselves are never removed; use spaces rm for that.

Examples:
  spaces clean`,
		Args:              cobra.NoArgs,
		ValidArgsFunction: noCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd)
		},
	}

	cmd.Flags().BoolP("help", "h", false, "Help for clean")

	return cmd
}

func runClean(cmd *cobra.Command) error {
	m, err := loadManager(cmd)
	if err != nil {
		return err
	}

	result, err := m.Clean()
	if err != nil {
		return err
	}

	if len(result.Removed) == 0 {
		logger.Info("Nothing to clean")
		return nil
	}
	logger.Success("Removed %d leftover(s)", len(result.Removed))
	for _, path := range result.Removed {
		logger.ListItem("%s", path)
	}
	return nil
}
