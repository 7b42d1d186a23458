package services

import (
	"errors"
	"fmt"

	"github.com/radszy/gerritstats/internal/models"
	"github.com/radszy/gerritstats/pkg/config"
	"github.com/radszy/gerritstats/pkg/logger"
)

// StatisticsService folds parsed reviews into per-user,
// per-repository activity counters.
type StatisticsService struct {
	ranges map[string]config.DateRange
	names  map[string]string
}

// NewStatisticsService creates the service from the normalized config
// tables. The service itself carries no config-structure knowledge.
func NewStatisticsService(ranges map[string]config.DateRange, names map[string]string) *StatisticsService {
	return &StatisticsService{
		ranges: ranges,
		names:  names,
	}
}

// Collect builds the user -> repository -> counters mapping from the
// full review list. A review counts only if its last patch set has a
// submit approval granted inside its owner's reporting window; a
// review owned by an unconfigured user aborts the run, since fetches
// are scoped per configured owner and a mismatch signals a bug.
func (s *StatisticsService) Collect(reviews []*models.Review) (models.UserStatistics, error) {
	stats := make(models.UserStatistics)

	for _, review := range reviews {
		window, ok := s.ranges[review.Owner.Username]
		if !ok {
			return nil, fmt.Errorf("review %s owned by unconfigured user %q", review.ID, review.Owner.Username)
		}

		within, err := review.WithinDateRange(window.FromTs, window.ToTs)
		if err != nil {
			return nil, err
		}
		if !within {
			logger.Debugf("Skipping review %s: no submit approval in range", review.ID)
			continue
		}

		repo := review.RepositoryName()
		made := review.CommentsMade(s.names)
		received := review.CommentsReceived()
		approvers, err := review.Approvers(s.names)
		if err != nil {
			return nil, err
		}

		// Owner path: only reviews a user owns count toward changes.
		owner := review.Owner.Username
		for _, key := range []string{models.AllRepositories, repo} {
			cell := stats.Cell(owner, key)
			cell.Changes++
			cell.CommentsReceived += received
			cell.PatchSets += review.PatchSetCount()
			cell.CommitWords += review.CommitMessageWords()
		}

		// Participant paths: commenters and approvers are credited
		// against this review's repository without touching changes.
		for username, count := range made {
			stats.Cell(username, models.AllRepositories).CommentsMade += count
			stats.Cell(username, repo).CommentsMade += count
		}
		for _, username := range approvers {
			stats.Cell(username, models.AllRepositories).Approvals++
			stats.Cell(username, repo).Approvals++
		}
	}

	return stats, nil
}

// Average computes the truncated integer mean over every user's "All"
// cell, one counter at a time. Averaging an empty mapping is a
// precondition violation, not a recoverable case.
func (s *StatisticsService) Average(stats models.UserStatistics) (*models.Stats, error) {
	if len(stats) == 0 {
		return nil, errors.New("cannot compute averages: no users in statistics")
	}

	avg := models.NewStats()
	for username, repos := range stats {
		all, ok := repos[models.AllRepositories]
		if !ok {
			return nil, fmt.Errorf("user %q has no %q row", username, models.AllRepositories)
		}
		avg.Add(all)
	}

	count := len(stats)
	avg.Changes /= count
	avg.Approvals /= count
	avg.CommentsMade /= count
	avg.CommentsReceived /= count
	avg.CommitWords /= count
	avg.PatchSets /= count
	return avg, nil
}
