package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func ChangelogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Generate CHANGELOG.md from conventional commits using git-chglog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := exec.LookPath("git-chglog"); err != nil {
				slog.Error("git-chglog not found in PATH, install it with: go install github.com/git-chglog/git-chglog/cmd/git-chglog@latest")
				return fmt.Errorf("git-chglog not installed: %w", err)
			}
			chglogArgs, err := changelogArgs(cmd)
			if err != nil {
				return err
			}
			slog.Info("running git-chglog", "args", chglogArgs)
			gitChglog := exec.CommandContext(cmd.Context(), "git-chglog", chglogArgs...)
			gitChglog.Stdout = os.Stdout
			gitChglog.Stderr = os.Stderr
			if err := gitChglog.Run(); err != nil {
				return fmt.Errorf("failed to generate changelog: %w", err)
			}
			slog.Info("changelog generated", "output", chglogArgs[1])
			return nil
		},
	}
	cmd.Flags().String("next", "", "next version tag (e.g. v1.2.0)")
	cmd.Flags().String("output", "CHANGELOG.md", "output file path")
	cmd.Flags().String("tag", "", "generate changelog for a specific tag only")
	return cmd
}

// changelogArgs always starts with the output option.
func changelogArgs(cmd *cobra.Command) ([]string, error) {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, fmt.Errorf("could not get output flag: %w", err)
	}
	next, err := cmd.Flags().GetString("next")
	if err != nil {
		return nil, fmt.Errorf("could not get next flag: %w", err)
	}
	tag, err := cmd.Flags().GetString("tag")
	if err != nil {
		return nil, fmt.Errorf("could not get tag flag: %w", err)
	}
	args := []string{"--output", output}
	if next != "" {
		args = append(args, "--next-tag", next)
	}
	if tag != "" {
		args = append(args, tag)
	}
	return args, nil
}
