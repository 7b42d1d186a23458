package models

import "sort"

// AllRepositories is the synthetic per-user pseudo-repository key
// aggregating activity across every repository the user touched.
const AllRepositories = "All"

// Stats holds the activity counters for one user x repository cell.
// Cells are created lazily on first contribution and mutated additively.
type Stats struct {
	Changes          int
	Approvals        int
	CommentsMade     int
	CommentsReceived int
	CommitWords      int
	PatchSets        int
}

// NewStats creates an empty counters cell
func NewStats() *Stats {
	return &Stats{}
}

// Add accumulates another cell's counters into this one.
func (s *Stats) Add(other *Stats) {
	s.Changes += other.Changes
	s.Approvals += other.Approvals
	s.CommentsMade += other.CommentsMade
	s.CommentsReceived += other.CommentsReceived
	s.CommitWords += other.CommitWords
	s.PatchSets += other.PatchSets
}

// UserStatistics maps username -> repository name (or "All") -> counters.
type UserStatistics map[string]map[string]*Stats

// Cell returns the counters cell for a user and repository, creating
// it lazily.
func (us UserStatistics) Cell(username, repo string) *Stats {
	repos, ok := us[username]
	if !ok {
		repos = make(map[string]*Stats)
		us[username] = repos
	}
	cell, ok := repos[repo]
	if !ok {
		cell = NewStats()
		repos[repo] = cell
	}
	return cell
}

// Usernames returns every user present in the mapping, sorted.
func (us UserStatistics) Usernames() []string {
	usernames := make([]string, 0, len(us))
	for username := range us {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	return usernames
}

// Repositories returns the repository keys recorded for a user,
// sorted, with the "All" pseudo-repository included.
func (us UserStatistics) Repositories(username string) []string {
	repos := make([]string, 0, len(us[username]))
	for repo := range us[username] {
		repos = append(repos, repo)
	}
	sort.Strings(repos)
	return repos
}
