package git

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Git rejects branches with special characters that conflict with ref syntax.
	invalidCharsRegex = regexp.MustCompile(`[~^:?*\[\]\\]`)
	// Leading/trailing dots and slashes break Git's hierarchical ref structure.
	invalidStartEndRegex = regexp.MustCompile(`^[./]|[./]$`)
	controlCharsRegex    = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateBranchName rejects names git would refuse as a branch, so a space
// is never created only to fail at checkout.
func ValidateBranchName(name string) error {
	reason := ""
	switch {
	case name == "":
		reason = "cannot be empty"
	case strings.Contains(name, " "):
		reason = "cannot contain spaces"
	case strings.HasPrefix(name, "-"):
		reason = "cannot start with a dash"
	case invalidCharsRegex.MatchString(name):
		reason = `contains invalid characters (~^:?*[]\)`
	case strings.Contains(name, ".."), strings.Contains(name, "@{"), strings.Contains(name, "//"):
		reason = "cannot contain '..', '@{' or '//'"
	case invalidStartEndRegex.MatchString(name):
		reason = "cannot start or end with dots or slashes"
	case controlCharsRegex.MatchString(name):
		reason = "cannot contain control characters"
	case name == "HEAD" || name == "@":
		reason = "cannot be 'HEAD' or '@'"
	case strings.HasSuffix(name, ".lock"):
		reason = "cannot end with '.lock'"
	default:
		return nil
	}
	return fmt.Errorf("invalid branch name %q: %s", name, reason)
}
