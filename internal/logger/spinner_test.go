package logger

import (
	"testing"

	"github.com/sqve/spaces/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestSpinnerUpdate(t *testing.T) {
	captureStderr(t, func() {
		Init(true, false)
		spinner := StartSpinner("initial")
		spinner.Update("updated message")

		got, _ := spinner.message.Load().(string)
		assert.Equal(t, "updated message", got)
	})
}

func TestSpinnerStopIdempotent(t *testing.T) {
	captureStderr(t, func() {
		Init(true, false)
		spinner := StartSpinner("test")

		spinner.Stop()
		spinner.Stop()
		spinner.Stop()
	})
}

func TestSpinnerStopWithResult(t *testing.T) {
	t.Setenv("SPACES_TEST_COLORS", "true")

	output := captureStderr(t, func() {
		Init(false, false)
		StartSpinner("working").StopWithSuccess("done successfully")
		StartSpinner("working").StopWithError("something failed")
	})

	assert.Contains(t, output, "✓")
	assert.Contains(t, output, "done successfully")
	assert.Contains(t, output, "✗")
	assert.Contains(t, output, "something failed")
}

func TestSpinnerPlainMode(t *testing.T) {
	output := captureStderr(t, func() {
		Init(true, false)
		spinner := StartSpinner("Loading data")
		spinner.Update("updated")
		spinner.Stop()
	})

	assert.Contains(t, output, "Loading data")
	assert.NotContains(t, output, "\033[")
	assert.NotContains(t, output, "⠋")
}

func TestWithSpinner(t *testing.T) {
	want := errors.New("clone failed")

	output := captureStderr(t, func() {
		Init(true, false)
		err := WithSpinner("Cloning", func() error { return want })
		assert.ErrorIs(t, err, want)
	})

	assert.Contains(t, output, "Cloning")
}
