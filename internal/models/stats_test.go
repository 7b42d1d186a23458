package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellLazyCreation(t *testing.T) {
	stats := make(UserStatistics)

	cell := stats.Cell("alice", AllRepositories)
	assert.Equal(t, &Stats{}, cell, "New cells start with zero counters")

	cell.Changes++
	assert.Same(t, cell, stats.Cell("alice", AllRepositories),
		"Repeated lookups must return the same cell")
	assert.Equal(t, 1, stats["alice"][AllRepositories].Changes)
}

func TestStatsAdd(t *testing.T) {
	total := NewStats()
	total.Add(&Stats{Changes: 1, Approvals: 2, CommentsMade: 3, CommentsReceived: 4, CommitWords: 5, PatchSets: 6})
	total.Add(&Stats{Changes: 10, Approvals: 20, CommentsMade: 30, CommentsReceived: 40, CommitWords: 50, PatchSets: 60})

	assert.Equal(t, &Stats{
		Changes:          11,
		Approvals:        22,
		CommentsMade:     33,
		CommentsReceived: 44,
		CommitWords:      55,
		PatchSets:        66,
	}, total)
}

func TestUsernamesSorted(t *testing.T) {
	stats := make(UserStatistics)
	stats.Cell("carol", AllRepositories)
	stats.Cell("alice", AllRepositories)
	stats.Cell("bob", AllRepositories)

	assert.Equal(t, []string{"alice", "bob", "carol"}, stats.Usernames())
}

func TestRepositoriesSorted(t *testing.T) {
	stats := make(UserStatistics)
	stats.Cell("alice", "tools/gizmo")
	stats.Cell("alice", AllRepositories)
	stats.Cell("alice", "platform/core")

	assert.Equal(t, []string{AllRepositories, "platform/core", "tools/gizmo"},
		stats.Repositories("alice"),
		"The All pseudo-repository sorts before lowercase repository names")
}
