package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangelogArgs(t *testing.T) {
	cmd := ChangelogCmd()
	args, err := changelogArgs(cmd)
	require.NoError(t, err)
	assert.Equal(t, []string{"--output", "CHANGELOG.md"}, args)

	require.NoError(t, cmd.Flags().Set("next", "v0.2.0"))
	require.NoError(t, cmd.Flags().Set("tag", "v0.1.0"))
	require.NoError(t, cmd.Flags().Set("output", "CHANGES.md"))
	args, err = changelogArgs(cmd)
	require.NoError(t, err)
	assert.Equal(t, []string{"--output", "CHANGES.md", "--next-tag", "v0.2.0", "v0.1.0"}, args)
}

func TestQualityCmds(t *testing.T) {
	var names []string
	for _, c := range QualityCmds() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"test", "lint", "integration-test"}, names)
}
