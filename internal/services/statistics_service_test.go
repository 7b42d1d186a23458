package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radszy/gerritstats/internal/models"
	"github.com/radszy/gerritstats/pkg/config"
)

func testService() *StatisticsService {
	ranges := map[string]config.DateRange{
		"alice": {FromTs: 1000, ToTs: 2000},
		"bob":   {FromTs: 1000, ToTs: 2000},
		"carol": {FromTs: 500, ToTs: 1500},
	}
	names := map[string]string{
		"alice": "Alice Smith",
		"bob":   "Bob Jones",
		"carol": "Carol White",
	}
	return NewStatisticsService(ranges, names)
}

// mergedReview builds a review with a submit approval on its last
// patch set granted at the given timestamp.
func mergedReview(id, owner, repo string, grantedOn int64, extra ...models.Approval) *models.Review {
	approvals := append([]models.Approval{
		{Type: models.ApprovalTypeSubmit, Value: "1", GrantedOn: grantedOn},
	}, extra...)
	return &models.Review{
		Project:       repo,
		ID:            id,
		Owner:         models.User{Username: owner},
		CommitMessage: "Fix the gizmo frobnicator",
		PatchSets:     []models.PatchSet{{Approvals: approvals}},
	}
}

func TestCollectOwnerCounters(t *testing.T) {
	service := testService()

	review := mergedReview("I1", "alice", "tools/gizmo", 1500)
	review.PatchSets = append([]models.PatchSet{
		{Approvals: []models.Approval{}, Comments: []models.Comment{
			{Reviewer: models.User{Username: "bob"}, Message: "nit"},
			{Reviewer: models.User{Username: "alice"}, Message: "done"},
		}},
	}, review.PatchSets...)

	stats, err := service.Collect([]*models.Review{review})
	require.NoError(t, err)

	for _, repo := range []string{models.AllRepositories, "tools/gizmo"} {
		cell := stats["alice"][repo]
		require.NotNil(t, cell, "repo %q", repo)
		assert.Equal(t, 1, cell.Changes, "repo %q", repo)
		assert.Equal(t, 2, cell.CommentsReceived, "repo %q", repo)
		assert.Equal(t, 2, cell.PatchSets, "repo %q", repo)
		assert.Equal(t, 4, cell.CommitWords, "repo %q", repo)
	}
}

func TestCollectCommenterCounters(t *testing.T) {
	service := testService()

	review := mergedReview("I1", "alice", "tools/gizmo", 1500)
	review.PatchSets[0].Comments = []models.Comment{
		{Reviewer: models.User{Username: "bob"}, Message: "nit"},
		{Reviewer: models.User{Username: "bob"}, Message: "LGTM"},
	}

	stats, err := service.Collect([]*models.Review{review})
	require.NoError(t, err)

	for _, repo := range []string{models.AllRepositories, "tools/gizmo"} {
		cell := stats["bob"][repo]
		require.NotNil(t, cell, "repo %q", repo)
		assert.Equal(t, 2, cell.CommentsMade, "repo %q", repo)
		assert.Equal(t, 0, cell.Changes,
			"Commenting on someone else's review must not count as a change")
	}
}

func TestCollectApproverCounters(t *testing.T) {
	service := testService()

	review := mergedReview("I1", "alice", "tools/gizmo", 1500,
		models.Approval{Type: models.ApprovalTypeCodeReview, Value: "2", By: models.User{Username: "bob"}},
		models.Approval{Type: models.ApprovalTypeCodeReview, Value: "2", By: models.User{Username: "mallory"}},
	)

	stats, err := service.Collect([]*models.Review{review})
	require.NoError(t, err)

	for _, repo := range []string{models.AllRepositories, "tools/gizmo"} {
		cell := stats["bob"][repo]
		require.NotNil(t, cell, "repo %q", repo)
		assert.Equal(t, 1, cell.Approvals, "repo %q", repo)
		assert.Equal(t, 0, cell.Changes,
			"Approving someone else's review must not count as a change")
	}
	assert.NotContains(t, stats, "mallory", "Unconfigured approvers are ignored")
}

func TestCollectSkipsOutOfRange(t *testing.T) {
	service := testService()

	reviews := []*models.Review{
		mergedReview("I1", "alice", "tools/gizmo", 999),
		mergedReview("I2", "alice", "tools/gizmo", 2001),
	}

	stats, err := service.Collect(reviews)
	require.NoError(t, err)
	assert.Empty(t, stats, "Reviews merged outside the window contribute nothing")
}

func TestCollectUsesOwnerWindow(t *testing.T) {
	service := testService()

	// carol's window is [500, 1500]; 1600 is in alice's window only.
	stats, err := service.Collect([]*models.Review{
		mergedReview("I1", "carol", "tools/gizmo", 1600),
	})
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestCollectNoSubmitApproval(t *testing.T) {
	service := testService()

	review := &models.Review{
		Project: "tools/gizmo",
		ID:      "I1",
		Owner:   models.User{Username: "alice"},
		PatchSets: []models.PatchSet{{
			Approvals: []models.Approval{
				{Type: models.ApprovalTypeCodeReview, Value: "2", GrantedOn: 1500},
			},
		}},
	}

	stats, err := service.Collect([]*models.Review{review})
	require.NoError(t, err, "A review with no submit approval is a normal skip")
	assert.Empty(t, stats)
}

func TestCollectMissingApprovalsCollectionIsFatal(t *testing.T) {
	service := testService()

	review := &models.Review{
		Project:   "tools/gizmo",
		ID:        "I1",
		Owner:     models.User{Username: "alice"},
		PatchSets: []models.PatchSet{{Approvals: nil}},
	}

	_, err := service.Collect([]*models.Review{review})
	assert.Error(t, err,
		"A last patch set without an approvals collection aborts the run")
}

func TestCollectUnconfiguredOwnerIsFatal(t *testing.T) {
	service := testService()

	_, err := service.Collect([]*models.Review{
		mergedReview("I1", "mallory", "tools/gizmo", 1500),
	})
	assert.Error(t, err,
		"Every fetched review must be owned by a configured user")
}

func TestAverage(t *testing.T) {
	service := testService()

	stats := make(models.UserStatistics)
	*stats.Cell("alice", models.AllRepositories) = models.Stats{
		Changes: 3, Approvals: 1, CommentsMade: 4, CommentsReceived: 7, CommitWords: 21, PatchSets: 5,
	}
	*stats.Cell("bob", models.AllRepositories) = models.Stats{
		Changes: 2, Approvals: 2, CommentsMade: 1, CommentsReceived: 2, CommitWords: 10, PatchSets: 2,
	}

	avg, err := service.Average(stats)
	require.NoError(t, err)

	// Integer division truncates each counter independently.
	assert.Equal(t, &models.Stats{
		Changes:          2,
		Approvals:        1,
		CommentsMade:     2,
		CommentsReceived: 4,
		CommitWords:      15,
		PatchSets:        3,
	}, avg)
}

func TestAverageNoUsers(t *testing.T) {
	service := testService()

	_, err := service.Average(make(models.UserStatistics))
	assert.Error(t, err, "Averaging zero users is a precondition violation")
}

func TestCollectEndToEnd(t *testing.T) {
	service := testService()

	// alice's review is merged exactly at her upper bound (inclusive)
	// and carries one comment by bob; bob's review is merged outside
	// his window and must be excluded entirely.
	aliceReview := mergedReview("I1", "alice", "tools/gizmo", 2000)
	aliceReview.PatchSets[0].Comments = []models.Comment{
		{Reviewer: models.User{Username: "bob"}, Message: "LGTM"},
	}
	bobReview := mergedReview("I2", "bob", "tools/gizmo", 2500)

	stats, err := service.Collect([]*models.Review{aliceReview, bobReview})
	require.NoError(t, err)

	require.Contains(t, stats, "alice")
	assert.Equal(t, 1, stats["alice"][models.AllRepositories].Changes)
	assert.Equal(t, 1, stats["alice"][models.AllRepositories].CommentsReceived)

	require.Contains(t, stats, "bob")
	assert.Equal(t, 1, stats["bob"][models.AllRepositories].CommentsMade)
	assert.Equal(t, 0, stats["bob"][models.AllRepositories].Changes,
		"bob's own review was merged out of range")
}
