package deploy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cardledger/cardledger/pkg/models"
)

func recordingStep(name string, err error, order *[]string) Step {
	return Step{
		Name: name,
		Run: func(_ context.Context) error {
			*order = append(*order, name)
			return err
		},
	}
}

func TestRunnerRun(t *testing.T) {
	ctx := context.Background()

	t.Run("all steps succeeding runs every step in order", func(t *testing.T) {
		var order []string
		runner := NewRunner([]Step{
			recordingStep("install", nil, &order),
			recordingStep("collectstatic", nil, &order),
			recordingStep("migrate", nil, &order),
		}, 0)

		err := runner.Run(ctx)
		assert.NoError(t, err)
		assert.Equal(t, []string{"install", "collectstatic", "migrate"}, order)
	})

	t.Run("failing step aborts before subsequent steps", func(t *testing.T) {
		var order []string
		stepErr := errors.New("pip exited with status 1")
		runner := NewRunner([]Step{
			recordingStep("install", stepErr, &order),
			recordingStep("collectstatic", nil, &order),
			recordingStep("migrate", nil, &order),
		}, 0)

		err := runner.Run(ctx)
		assert.ErrorIs(t, err, models.ErrStepFailed)
		assert.ErrorContains(t, err, "install")
		assert.Equal(t, []string{"install"}, order)
	})

	t.Run("optional step failure is suppressed", func(t *testing.T) {
		var order []string
		steps := []Step{
			recordingStep("migrate", nil, &order),
			{
				Name:     "createsuperuser",
				Optional: true,
				Run: func(_ context.Context) error {
					order = append(order, "createsuperuser")
					return models.NewBadRequestError("superuser already exists")
				},
			},
			recordingStep("healthcheck", nil, &order),
		}

		err := NewRunner(steps, 0).Run(ctx)
		assert.NoError(t, err)
		assert.Equal(t, []string{"migrate", "createsuperuser", "healthcheck"}, order)
	})

	t.Run("optional step as last step still exits clean", func(t *testing.T) {
		steps := []Step{
			{
				Name:     "createsuperuser",
				Optional: true,
				Run: func(_ context.Context) error {
					return errors.New("boom")
				},
			},
		}

		err := NewRunner(steps, 0).Run(ctx)
		assert.NoError(t, err)
	})

	t.Run("step with no action fails", func(t *testing.T) {
		err := NewRunner([]Step{{Name: "empty"}}, 0).Run(ctx)
		assert.ErrorIs(t, err, models.ErrStepFailed)
	})

	t.Run("step timeout cancels the step context", func(t *testing.T) {
		steps := []Step{
			{
				Name: "slow",
				Run: func(ctx context.Context) error {
					<-ctx.Done()
					return ctx.Err()
				},
			},
		}

		err := NewRunner(steps, 10*time.Millisecond).Run(ctx)
		assert.ErrorIs(t, err, models.ErrStepFailed)
		assert.ErrorContains(t, err, "deadline")
	})
}
