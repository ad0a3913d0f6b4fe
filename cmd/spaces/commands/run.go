package commands

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// ExitError carries the exit status of a command run inside a space.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <name> -- <command>...",
		Short: "Run a command in a space",
		Long: `Run a command with the space as working directory. The command's exit
status is passed through.

Examples:
  spaces run feat-auth -- go test ./...
  spaces run 1 -- git status
  spaces run fix -- sh -c "make && make test"`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeFirstSpace,
		RunE: func(cmd *cobra.Command, args []string) error {
			dashPos := cmd.ArgsLenAtDash()
			if dashPos != 1 {
				return errors.New("usage: spaces run <name> -- <command>...")
			}
			return runRun(cmd, args[0], args[1:])
		},
	}

	cmd.Flags().BoolP("help", "h", false, "Help for run")

	return cmd
}

func runRun(cmd *cobra.Command, name string, command []string) error {
	if len(command) == 0 {
		return errors.New("no command specified after --")
	}

	m, err := loadManager(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	sp, err := m.Resolve(ctx, name)
	if err != nil {
		return err
	}

	c := exec.CommandContext(ctx, command[0], command[1:]...) //nolint:gosec
	c.Dir = sp.Path
	c.Stdin = os.Stdin
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	c.Env = append(os.Environ(), "SPACE="+sp.Name, "SPACE_PATH="+sp.Path)

	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("failed to run %s: %w", command[0], err)
	}
	return nil
}
