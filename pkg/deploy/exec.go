package deploy

import (
	"context"
	"errors"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// NewCommandStep returns a Step that runs argv as a subprocess. The
// subprocess inherits the current environment and working directory; its
// output is streamed through the logger so failing commands leave their own
// diagnostics in the deploy log.
func NewCommandStep(name string, argv []string) Step {
	return Step{
		Name: name,
		Run: func(ctx context.Context) error {
			if len(argv) == 0 {
				return errors.New("empty command")
			}

			cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

			stdout := log.WriterLevel(logrus.InfoLevel)
			defer stdout.Close()
			stderr := log.WriterLevel(logrus.ErrorLevel)
			defer stderr.Close()

			cmd.Stdout = stdout
			cmd.Stderr = stderr

			return cmd.Run()
		},
	}
}
