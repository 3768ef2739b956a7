package vca

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeIDFromOwnBody(t *testing.T) {
	c := Commit{Body: []string{"Fix thing", "", "Change-Id: I1234567890abcdef"}}
	id, ok := c.ChangeID()
	assert.True(t, ok)
	assert.Equal(t, "I1234567890abcdef", id)
}

func TestChangeIDRecursesIntoSubcommits(t *testing.T) {
	c := Commit{
		Body: []string{"Merge branch 'feature'"},
		SubCommits: []Commit{
			{Body: []string{"real change", "", "Change-Id: Ideadbeef"}},
		},
	}
	id, ok := c.ChangeID()
	assert.True(t, ok)
	assert.Equal(t, "Ideadbeef", id)
}

func TestChangeIDAbsent(t *testing.T) {
	c := Commit{Body: []string{"no trailer here"}}
	_, ok := c.ChangeID()
	assert.False(t, ok)
}
