package deploy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCommandStep(t *testing.T) {
	ctx := context.Background()

	t.Run("successful command", func(t *testing.T) {
		step := NewCommandStep("install", []string{"sh", "-c", "exit 0"})
		err := step.Run(ctx)
		assert.NoError(t, err)
	})

	t.Run("failing command returns the exit error", func(t *testing.T) {
		step := NewCommandStep("install", []string{"sh", "-c", "exit 3"})
		err := step.Run(ctx)
		assert.Error(t, err)
		assert.ErrorContains(t, err, "exit status 3")
	})

	t.Run("empty command is an error", func(t *testing.T) {
		step := NewCommandStep("install", nil)
		err := step.Run(ctx)
		assert.Error(t, err)
	})

	t.Run("cancelled context aborts the command", func(t *testing.T) {
		cancelledCtx, cancel := context.WithCancel(ctx)
		cancel()

		step := NewCommandStep("install", []string{"sleep", "10"})
		err := step.Run(cancelledCtx)
		assert.Error(t, err)
	})
}
