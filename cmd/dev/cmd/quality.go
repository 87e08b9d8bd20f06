package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

type qualityStep struct {
	use   string
	short string
	run   func() error
}

var qualitySteps = []qualityStep{
	{"test", "Run unit tests", test.Test},
	{"lint", "Run linters", test.Lint},
	{"integration-test", "Run integration tests against attached hardware", test.Integ},
}

// QualityCmds returns the test, lint and integration-test commands.
func QualityCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(qualitySteps))
	for _, step := range qualitySteps {
		cmds = append(cmds, &cobra.Command{
			Use:   step.use,
			Short: step.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := step.run(); err != nil {
					return fmt.Errorf("%s failed: %w", step.use, err)
				}
				return nil
			},
		})
	}
	return cmds
}
