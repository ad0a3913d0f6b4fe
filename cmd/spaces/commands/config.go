package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/sqve/spaces/internal/config"
	"github.com/sqve/spaces/internal/git"
	"github.com/sqve/spaces/internal/logger"
)

type scopeFlags struct {
	local, global, system bool
}

func (f scopeFlags) scope() (git.Scope, error) {
	set := lo.Count([]bool{f.local, f.global, f.system}, true)
	if set > 1 {
		return "", errors.New("only one of --local, --global or --system may be given")
	}
	switch {
	case f.local:
		return git.ScopeLocal, nil
	case f.global:
		return git.ScopeGlobal, nil
	case f.system:
		return git.ScopeSystem, nil
	}
	return git.ScopeAuto, nil
}

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	var flags scopeFlags

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage spaces configuration",
		Long: `Read and write spaces.* keys in git configuration.

Without a scope, reads combine local, .spacesrc, global and system values
and writes go to the local repository configuration. The system scope is
read-only.

Examples:
  spaces config                                     # List all values
  spaces config get spaces.clones.dir               # Show a value
  spaces config set spaces.clones.prefix ws-        # Set locally
  spaces config add --global spaces.copy.include .env
  spaces config unset spaces.hook.postCreate`,
		Args:              cobra.NoArgs,
		ValidArgsFunction: noCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(cmd, flags)
		},
	}

	cmd.PersistentFlags().BoolVar(&flags.local, "local", false, "Use repository configuration")
	cmd.PersistentFlags().BoolVar(&flags.global, "global", false, "Use global configuration")
	cmd.PersistentFlags().BoolVar(&flags.system, "system", false, "Use system configuration")
	cmd.Flags().BoolP("help", "h", false, "Help for config")

	cmd.AddCommand(
		newConfigSubCmd("get <key>", "Show every value of a key", 1, &flags, runConfigGet),
		newConfigSubCmd("set <key> <value>", "Replace a key's values", 2, &flags, runConfigSet),
		newConfigSubCmd("add <key> <value>", "Append a value to a key", 2, &flags, runConfigAdd),
		newConfigSubCmd("unset <key>", "Remove every value of a key", 1, &flags, runConfigUnset),
		newConfigSubCmd("list", "List configured values", 0, &flags, func(cmd *cobra.Command, flags scopeFlags, _ []string) error {
			return runConfigList(cmd, flags)
		}),
	)

	return cmd
}

type configRunner func(cmd *cobra.Command, flags scopeFlags, args []string) error

func newConfigSubCmd(use, short string, nargs int, flags *scopeFlags, run configRunner) *cobra.Command {
	name, _, _ := strings.Cut(use, " ")
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 && nargs > 0 {
				return lo.Filter(config.KnownKeys(), func(key string, _ int) bool {
					return strings.HasPrefix(key, toComplete)
				}), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, *flags, args)
		},
	}
	cmd.Flags().BoolP("help", "h", false, "Help for "+name)
	return cmd
}

// configTarget returns the repository root, or "" outside a repository when
// the scope does not need one.
func configTarget(cmd *cobra.Command, flags scopeFlags) (string, git.Scope, error) {
	scope, err := flags.scope()
	if err != nil {
		return "", "", err
	}
	root, err := findRepoRoot(commandContext(cmd))
	if err != nil {
		if scope == git.ScopeGlobal || scope == git.ScopeSystem {
			return "", scope, nil
		}
		if scope == git.ScopeAuto {
			logger.Debug("Outside a repository: %v", err)
			return "", scope, nil
		}
		return "", "", err
	}
	return root, scope, nil
}

func runConfigList(cmd *cobra.Command, flags scopeFlags) error {
	root, scope, err := configTarget(cmd, flags)
	if err != nil {
		return err
	}

	entries, err := config.List(commandContext(cmd), root, scope)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		if scope == git.ScopeAuto {
			fmt.Fprintf(out, "[%s] %s=%s\n", e.Source, e.Key, e.Value)
			continue
		}
		fmt.Fprintf(out, "%s=%s\n", e.Key, e.Value)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, flags scopeFlags, args []string) error {
	root, scope, err := configTarget(cmd, flags)
	if err != nil {
		return err
	}

	values, err := config.Get(commandContext(cmd), root, args[0], scope)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: %s", git.ErrConfigNotFound, args[0])
	}
	for _, v := range values {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, flags scopeFlags, args []string) error {
	root, scope, err := configTarget(cmd, flags)
	if err != nil {
		return err
	}
	return config.Set(commandContext(cmd), root, args[0], args[1], scope)
}

func runConfigAdd(cmd *cobra.Command, flags scopeFlags, args []string) error {
	root, scope, err := configTarget(cmd, flags)
	if err != nil {
		return err
	}
	return config.Add(commandContext(cmd), root, args[0], args[1], scope)
}

func runConfigUnset(cmd *cobra.Command, flags scopeFlags, args []string) error {
	root, scope, err := configTarget(cmd, flags)
	if err != nil {
		return err
	}
	return config.Unset(commandContext(cmd), root, args[0], scope)
}
