package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sqve/spaces/internal/config"
	"github.com/sqve/spaces/internal/git"
	"github.com/sqve/spaces/internal/logger"
	"github.com/sqve/spaces/internal/space"
)

// Severity represents the severity level of a doctor check
type Severity int

const (
	SeverityOK Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

// Check is the outcome of one diagnostic.
type Check struct {
	Name     string
	Severity Severity
	Message  string
	FixHint  string
}

// DoctorResult contains all checks and summary counts
type DoctorResult struct {
	Checks   []Check
	Errors   int
	Warnings int
}

func (r *DoctorResult) add(c Check) {
	r.Checks = append(r.Checks, c)
	switch c.Severity {
	case SeverityError:
		r.Errors++
	case SeverityWarning:
		r.Warnings++
	}
}

// NewDoctorCmd creates the doctor command
func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the spaces setup",
		Long: `Check git, the repository, configuration, the clones directory and the
mirror, and report anything that would make spaces fail.

Examples:
  spaces doctor`,
		Args:              cobra.NoArgs,
		ValidArgsFunction: noCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd)
		},
	}

	cmd.Flags().BoolP("help", "h", false, "Help for doctor")

	return cmd
}

func runDoctor(cmd *cobra.Command) error {
	result := diagnose(cmd)
	outputDoctorResult(result)

	if result.Errors > 0 {
		return fmt.Errorf("doctor found %d error(s)", result.Errors)
	}
	return nil
}

func diagnose(cmd *cobra.Command) *DoctorResult {
	ctx := commandContext(cmd)
	result := &DoctorResult{}

	version, err := git.Version(ctx)
	if err != nil {
		result.add(Check{Name: "git", Severity: SeverityError, Message: err.Error(), FixHint: "install git and add it to PATH"})
		return result
	}
	result.add(Check{Name: "git", Message: version})

	root, err := findRepoRoot(ctx)
	if err != nil {
		result.add(Check{Name: "repository", Severity: SeverityError, Message: err.Error(), FixHint: "run spaces inside a git repository"})
		return result
	}
	result.add(Check{Name: "repository", Message: root})

	cfg, err := config.Resolve(ctx, root, overrides(cmd))
	if err != nil {
		result.add(Check{Name: "config", Severity: SeverityError, Message: err.Error(), FixHint: "inspect values with spaces config list"})
		return result
	}
	result.add(Check{Name: "config", Message: "valid"})

	if cfg.Origin == "" {
		result.add(Check{Name: "origin", Severity: SeverityInfo, Message: "no origin remote; spaces clone from the repository itself"})
	} else {
		result.add(Check{Name: "origin", Message: cfg.Origin})
	}
	result.add(Check{Name: "default branch", Message: cfg.DefaultBranch})

	result.add(checkDir("clones dir", cfg.ClonesDir))
	result.add(checkDir("mirrors dir", cfg.MirrorsRoot))
	result.add(checkMirror(cfg))

	return result
}

func checkDir(name, dir string) Check {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return Check{Name: name, Severity: SeverityInfo, Message: dir + " (created on first use)"}
	case err != nil:
		return Check{Name: name, Severity: SeverityError, Message: err.Error()}
	case !info.IsDir():
		return Check{Name: name, Severity: SeverityError, Message: dir + " is not a directory", FixHint: "remove the file or configure another directory"}
	}

	scratch, err := os.CreateTemp(dir, ".spaces-doctor-*")
	if err != nil {
		return Check{Name: name, Severity: SeverityError, Message: dir + " is not writable"}
	}
	_ = scratch.Close()
	_ = os.Remove(scratch.Name())
	return Check{Name: name, Message: dir}
}

func checkMirror(cfg *config.Effective) Check {
	status, err := space.NewManager(cfg, nil).Mirror().Status()
	switch {
	case err != nil:
		return Check{Name: "mirror", Severity: SeverityWarning, Message: err.Error(), FixHint: "run spaces mirrors update"}
	case !status.Exists:
		return Check{Name: "mirror", Severity: SeverityInfo, Message: "not created yet; the first spaces new creates it"}
	case status.LastError != "":
		return Check{Name: "mirror", Severity: SeverityWarning, Message: "last fetch failed: " + status.LastError, FixHint: "run spaces mirrors update"}
	case status.FetchInProgress:
		return Check{Name: "mirror", Severity: SeverityInfo, Message: fmt.Sprintf("fetch in progress (pid %d)", status.LockHolder)}
	}
	return Check{Name: "mirror", Message: status.Path}
}

func outputDoctorResult(result *DoctorResult) {
	for _, c := range result.Checks {
		switch c.Severity {
		case SeverityOK:
			logger.Success("%s: %s", c.Name, c.Message)
		case SeverityInfo:
			logger.Info("%s: %s", c.Name, c.Message)
		case SeverityWarning:
			logger.Warning("%s: %s", c.Name, c.Message)
		case SeverityError:
			logger.Error("%s: %s", c.Name, c.Message)
		}
		if c.FixHint != "" {
			logger.ListItem("%s", c.FixHint)
		}
	}

	if result.Errors == 0 && result.Warnings == 0 {
		logger.Success("No issues found")
	}
}
