package commands

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/sqve/spaces/internal/logger"
	"github.com/sqve/spaces/internal/mirror"
	"github.com/sqve/spaces/internal/styles"
)

// NewMirrorsCmd creates the mirrors command
func NewMirrorsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "mirrors",
		Short: "Show mirror status",
		Long: `Show the shared mirror of the current repository, or every mirror under
the mirrors directory with --all.

Examples:
  spaces mirrors          # This repository's mirror
  spaces mirrors --all    # Every mirror
  spaces mirrors update   # Fetch the mirror now`,
		Args:              cobra.NoArgs,
		ValidArgsFunction: noCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMirrors(cmd, all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show every mirror")
	cmd.Flags().BoolP("help", "h", false, "Help for mirrors")

	cmd.AddCommand(newMirrorsUpdateCmd())

	return cmd
}

func newMirrorsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Create or fetch the mirror",
		Long: `Create the mirror of the current repository, or fetch origin and the
repository's local branches into it.

Examples:
  spaces mirrors update`,
		Args:              cobra.NoArgs,
		ValidArgsFunction: noCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMirrorsUpdate(cmd)
		},
	}

	cmd.Flags().BoolP("help", "h", false, "Help for update")

	return cmd
}

func runMirrors(cmd *cobra.Command, all bool) error {
	m, err := loadManager(cmd)
	if err != nil {
		return err
	}

	var mirrors []*mirror.Mirror
	if all {
		mirrors, err = mirror.ListAll(m.Config().MirrorsRoot)
	} else {
		var status *mirror.Mirror
		status, err = m.Mirror().Status()
		mirrors = []*mirror.Mirror{status}
	}
	if err != nil {
		return err
	}

	if len(mirrors) == 0 {
		logger.Info("No mirrors in %s", m.Config().MirrorsRoot)
		return nil
	}

	rows := lo.Map(mirrors, func(mr *mirror.Mirror, _ int) []string {
		return []string{
			styles.Render(&styles.Path, mr.Path),
			lo.Ternary(mr.Origin == "", "(local)", mr.Origin),
			lastFetch(mr.LastFetch),
			mirrorState(mr),
		}
	})
	_, err = fmt.Fprint(cmd.OutOrStdout(), styles.Table([]string{"PATH", "ORIGIN", "LAST FETCH", "STATUS"}, rows))
	return err
}

func runMirrorsUpdate(cmd *cobra.Command) error {
	m, err := loadManager(cmd)
	if err != nil {
		return err
	}

	mr, err := m.Mirror().ForceUpdate(commandContext(cmd))
	if err != nil {
		return err
	}
	if mr.LastError != "" {
		return fmt.Errorf("mirror fetch failed: %s", mr.LastError)
	}

	logger.Success("Updated mirror %s", styles.Render(&styles.Path, mr.Path))
	return nil
}

func lastFetch(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

func mirrorState(mr *mirror.Mirror) string {
	switch {
	case !mr.Exists:
		return styles.Render(&styles.Dimmed, "missing")
	case mr.FetchInProgress && mr.LockHolder > 0:
		return styles.Render(&styles.Info, fmt.Sprintf("fetching (pid %d)", mr.LockHolder))
	case mr.FetchInProgress:
		return styles.Render(&styles.Info, "fetching")
	case mr.LastError != "":
		return styles.Render(&styles.Error, "error: "+mr.LastError)
	default:
		return styles.Render(&styles.Success, "ok")
	}
}
