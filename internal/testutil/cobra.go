package testutil

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// AssertFlagExists fails if flag doesn't exist or has wrong properties.
// Pass nil for defValue, or empty valueType or shorthand, to skip that check.
func AssertFlagExists(t *testing.T, cmd *cobra.Command, name string, defValue *string, valueType, shorthand string) {
	t.Helper()
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(name)
	}
	require.NotNil(t, flag, "expected flag --%s to exist", name)
	if defValue != nil {
		require.Equal(t, *defValue, flag.DefValue, "flag --%s default", name)
	}
	if valueType != "" {
		require.Equal(t, valueType, flag.Value.Type(), "flag --%s type", name)
	}
	if shorthand != "" {
		require.Equal(t, shorthand, flag.Shorthand, "flag --%s shorthand", name)
	}
}

// ExecuteCommand runs cmd with args and returns what it wrote to stdout and
// stderr through cobra's writers.
func ExecuteCommand(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}
