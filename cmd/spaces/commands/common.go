package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/sqve/spaces/internal/config"
	"github.com/sqve/spaces/internal/git"
	"github.com/sqve/spaces/internal/hooks"
	"github.com/sqve/spaces/internal/space"
)

// Config override flags, registered once on the root command.
const (
	flagClonesDir     = "clones-dir"
	flagClonesPrefix  = "clones-prefix"
	flagMirrorsDir    = "mirrors-dir"
	flagDefaultBranch = "default-branch"
	flagInclude       = "include"
	flagExclude       = "exclude"
	flagIncludeDir    = "include-dir"
	flagExcludeDir    = "exclude-dir"
)

// AddConfigFlags registers the flags that override configuration for a
// single invocation.
func AddConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String(flagClonesDir, "", "Directory holding the spaces (spaces.clones.dir)")
	flags.String(flagClonesPrefix, "", "Prefix of space directory names (spaces.clones.prefix)")
	flags.String(flagMirrorsDir, "", "Directory holding mirrors (spaces.mirrors.dir)")
	flags.String(flagDefaultBranch, "", "Base branch for new spaces (spaces.defaultBranch)")
	flags.StringArray(flagInclude, nil, "Additional copy include pattern")
	flags.StringArray(flagExclude, nil, "Additional copy exclude pattern")
	flags.StringArray(flagIncludeDir, nil, "Additional copy include directory name")
	flags.StringArray(flagExcludeDir, nil, "Additional copy exclude directory name")
}

// overrides collects the config flags the user actually set.
func overrides(cmd *cobra.Command) config.Layer {
	flags := cmd.Flags()

	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		value, _ := flags.GetString(name)
		return &value
	}
	list := func(name string) []string {
		if !flags.Changed(name) {
			return nil
		}
		values, _ := flags.GetStringArray(name)
		return values
	}

	return config.Layer{
		ClonesDir:     str(flagClonesDir),
		ClonesPrefix:  str(flagClonesPrefix),
		MirrorsDir:    str(flagMirrorsDir),
		DefaultBranch: str(flagDefaultBranch),
		Include:       list(flagInclude),
		Exclude:       list(flagExclude),
		IncludeDirs:   list(flagIncludeDir),
		ExcludeDirs:   list(flagExcludeDir),
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func findRepoRoot(ctx context.Context) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	root, err := git.RepoRoot(ctx, cwd)
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %s", cwd)
	}
	return root, nil
}

func loadConfig(cmd *cobra.Command) (*config.Effective, error) {
	ctx := commandContext(cmd)
	root, err := findRepoRoot(ctx)
	if err != nil {
		return nil, err
	}
	return config.Resolve(ctx, root, overrides(cmd))
}

func loadManager(cmd *cobra.Command) (*space.Manager, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return space.NewManager(cfg, hooks.NewRunner(cmd.ErrOrStderr())), nil
}

// completeSpaceNames offers spaces not already named in args.
func completeSpaceNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	m, err := loadManager(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names := lo.Without(m.Names(commandContext(cmd)), args...)
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeFirstSpace completes only the first positional argument.
func completeFirstSpace(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	return completeSpaceNames(cmd, args, toComplete)
}

func noCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return nil, cobra.ShellCompDirectiveNoFileComp
}
