package commands

import (
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/sqve/spaces/internal/space"
	"github.com/sqve/spaces/internal/styles"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var porcelain bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List spaces",
		Long: `List the main repository and every space with its branch and status.

Status is one of ok, dirty, detached or missing (no working tree, usually
an interrupted creation).

Examples:
  spaces list              # Table of spaces
  spaces list --porcelain  # path<TAB>name<TAB>branch<TAB>status per line`,
		Args:              cobra.NoArgs,
		ValidArgsFunction: noCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, porcelain)
		},
	}

	cmd.Flags().BoolVar(&porcelain, "porcelain", false, "Machine-readable output")
	cmd.Flags().BoolP("help", "h", false, "Help for list")

	return cmd
}

func runList(cmd *cobra.Command, porcelain bool) error {
	m, err := loadManager(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	main, err := m.Resolve(ctx, space.MainName)
	if err != nil {
		return err
	}
	spaces, err := m.List(ctx)
	if err != nil {
		return err
	}
	all := append([]*space.Space{main}, spaces...)

	if porcelain {
		return writePorcelain(cmd.OutOrStdout(), all)
	}

	rows := lo.Map(all, func(sp *space.Space, _ int) []string {
		return []string{
			styles.Render(&styles.Space, sp.Name),
			sp.Branch,
			renderStatus(sp.Status),
			styles.Render(&styles.Path, sp.Path),
		}
	})
	_, err = fmt.Fprint(cmd.OutOrStdout(), styles.Table([]string{"NAME", "BRANCH", "STATUS", "PATH"}, rows))
	return err
}

func writePorcelain(w io.Writer, spaces []*space.Space) error {
	for _, sp := range spaces {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sp.Path, sp.Name, sp.Branch, sp.Status); err != nil {
			return err
		}
	}
	return nil
}

func renderStatus(status space.Status) string {
	switch status {
	case space.StatusOK:
		return styles.Render(&styles.Success, string(status))
	case space.StatusDirty, space.StatusDetached:
		return styles.Render(&styles.Warning, string(status))
	default:
		return styles.Render(&styles.Error, string(status))
	}
}
