package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/sqve/spaces/internal/logger"
	"github.com/sqve/spaces/internal/space"
	"github.com/sqve/spaces/internal/styles"
)

// NewCopyCmd creates the copy command
func NewCopyCmd() *cobra.Command {
	var opts space.CopyOptions

	cmd := &cobra.Command{
		Use:     "copy [<name>... | --all] [-- <pattern>...]",
		Aliases: []string{"cp"},
		Short:   "Copy files between spaces",
		Long: `Copy files matching the configured copy rules, or the patterns given after
--, from the main repository (or --from) into spaces. Existing files in the
targets are overwritten.

Examples:
  spaces copy feat-auth                      # Configured rules into one space
  spaces copy --all -- .env 'config/*.local' # Explicit patterns into every space
  spaces copy --from fix -n main             # Preview copying from a space back`,
		Args:              cobra.ArbitraryArgs,
		ValidArgsFunction: completeSpaceNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Targets, opts.Patterns = args, nil
			if dashPos := cmd.ArgsLenAtDash(); dashPos >= 0 {
				opts.Targets, opts.Patterns = args[:dashPos], args[dashPos:]
			}
			return runCopy(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "Source space (default: main repository)")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Copy into every space")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "Show what would be copied")
	cmd.Flags().BoolP("help", "h", false, "Help for copy")

	return cmd
}

func runCopy(cmd *cobra.Command, opts space.CopyOptions) error {
	if opts.All && len(opts.Targets) > 0 {
		return errors.New("cannot use --all with specific spaces")
	}
	if !opts.All && len(opts.Targets) == 0 {
		return errors.New("must specify --all or at least one space")
	}

	m, err := loadManager(cmd)
	if err != nil {
		return err
	}

	results, err := m.Copy(commandContext(cmd), opts)
	for _, result := range results {
		name := styles.Render(&styles.Space, result.Target.Name)
		if opts.DryRun {
			logger.Info("Would copy %d file(s) to %s", len(result.Copied), name)
			for _, path := range result.Copied {
				logger.ListItem("%s", path)
			}
			continue
		}
		logger.Success("Copied %d file(s) to %s", len(result.Copied), name)
		if logger.IsDebug() {
			for _, path := range result.Copied {
				logger.ListSubItem("%s", path)
			}
		}
	}
	return err
}
