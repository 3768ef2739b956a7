package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV(""))
	assert.Equal(t, []string{"a", "b"}, splitCSV("a,b"))
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a , b "))
	assert.Equal(t, []string{"a"}, splitCSV("a,,"))
}

func TestNewRootCmdRegistersSubcommands(t *testing.T) {
	root := NewRootCmd("1.0.0", "abc123", "2026-07-31")

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{
		"poll-original", "poll-replica", "merge-recombinations",
		"prepare-tests", "vote-recombinations", "cleanup",
	} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
