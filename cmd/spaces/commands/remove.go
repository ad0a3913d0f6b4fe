package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sqve/spaces/internal/errors"
	"github.com/sqve/spaces/internal/logger"
	"github.com/sqve/spaces/internal/space"
	"github.com/sqve/spaces/internal/styles"
)

// NewRemoveCmd creates the rm command
func NewRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "rm <name>...",
		Aliases: []string{"remove"},
		Short:   "Remove spaces",
		Long: `Remove one or more spaces.

preRemove hooks run first; a failing hook keeps the space unless --force is
given. postRemove hooks run after the directory is gone.

Examples:
  spaces rm feat-auth          # Remove a space
  spaces rm feat-auth fix-123  # Remove several spaces
  spaces rm --force wip        # Remove even if a preRemove hook fails`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeSpaceNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Remove even if a preRemove hook fails")
	cmd.Flags().BoolP("help", "h", false, "Help for rm")

	return cmd
}

func runRemove(cmd *cobra.Command, names []string, force bool) error {
	m, err := loadManager(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	if len(names) == 1 {
		err := m.Remove(ctx, names[0], space.RemoveOptions{Force: force})
		if err == nil {
			logger.Success("Removed space %s", styles.Render(&styles.Space, names[0]))
		}
		return err
	}

	var failed []string
	var recoverable error
	removed := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		err := m.Remove(ctx, name, space.RemoveOptions{Force: force})
		switch {
		case err == nil:
			removed++
			logger.Success("Removed space %s", styles.Render(&styles.Space, name))
		case errors.IsRecoverable(err):
			removed++
			logger.Warning("Removed space %s: %v", name, err)
			if recoverable == nil {
				recoverable = err
			}
		default:
			failed = append(failed, name)
			logger.Error("%v", err)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("removed %d of %d spaces; failed: %s", removed, len(names), strings.Join(failed, ", "))
	}
	return recoverable
}
