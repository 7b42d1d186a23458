package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Approval type tags and values used by the aggregation rules
const (
	ApprovalTypeSubmit     = "SUBM"
	ApprovalTypeCodeReview = "Code-Review"
	CodeReviewMaxValue     = "2"
)

// Review represents one merged change fetched from Gerrit.
// Immutable once parsed.
type Review struct {
	Project       string     `json:"project"`
	Branch        string     `json:"branch"`
	ID            string     `json:"id"`
	Number        int        `json:"number"`
	Owner         User       `json:"owner"`
	CommitMessage string     `json:"commitMessage"`
	Comments      []Comment  `json:"comments"`
	PatchSets     []PatchSet `json:"patchSets"`
}

// User identifies a Gerrit account
type User struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Comment is one review message left by a reviewer on a patch set
type Comment struct {
	Reviewer User   `json:"reviewer"`
	Message  string `json:"message"`
}

// PatchSet is one revision of a Review. A nil Approvals slice means
// Gerrit sent no approvals collection at all, which callers treat
// differently from an empty one.
type PatchSet struct {
	Approvals []Approval `json:"approvals"`
	Comments  []Comment  `json:"comments"`
}

// Approval is a typed vote on a patch set
type Approval struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	GrantedOn int64  `json:"grantedOn"`
	By        User   `json:"by"`
}

// ParseReview decodes one line of Gerrit's newline-delimited JSON output.
func ParseReview(line string) (*Review, error) {
	var review Review
	if err := json.Unmarshal([]byte(line), &review); err != nil {
		return nil, fmt.Errorf("failed to parse review record: %w", err)
	}
	return &review, nil
}

// lastPatchSet returns the most recent revision, which is authoritative
// for approval and merge status.
func (r *Review) lastPatchSet() (*PatchSet, error) {
	if len(r.PatchSets) == 0 {
		return nil, fmt.Errorf("review %s has no patch sets", r.ID)
	}
	return &r.PatchSets[len(r.PatchSets)-1], nil
}

// WithinDateRange reports whether the last patch set carries a submit
// approval granted inside [fromTs, toTs]. A last patch set without an
// approvals collection is malformed upstream data and returns an error;
// an approvals collection with no qualifying entry is a normal mismatch.
func (r *Review) WithinDateRange(fromTs, toTs int64) (bool, error) {
	patch, err := r.lastPatchSet()
	if err != nil {
		return false, err
	}
	if patch.Approvals == nil {
		return false, fmt.Errorf("review %s: last patch set has no approvals collection", r.ID)
	}
	for _, approval := range patch.Approvals {
		if approval.Type == ApprovalTypeSubmit &&
			fromTs <= approval.GrantedOn && approval.GrantedOn <= toTs {
			return true, nil
		}
	}
	return false, nil
}

// RepositoryName returns the repository this change belongs to.
func (r *Review) RepositoryName() string {
	return r.Project
}

// CommentsMade counts comments per reviewer across all patch sets,
// excluding the owner's own comments and reviewers not in the
// configured user set.
func (r *Review) CommentsMade(configured map[string]string) map[string]int {
	made := make(map[string]int)
	for _, patch := range r.PatchSets {
		for _, comment := range patch.Comments {
			username := comment.Reviewer.Username
			if _, ok := configured[username]; ok && username != r.Owner.Username {
				made[username]++
			}
		}
	}
	return made
}

// CommentsReceived returns the total comment count across all patch
// sets, attributed to the review owner.
func (r *Review) CommentsReceived() int {
	received := 0
	for _, patch := range r.PatchSets {
		received += len(patch.Comments)
	}
	return received
}

// Approvers returns the configured users who cast a maximum
// Code-Review vote on the last patch set, one entry per qualifying
// approval record.
func (r *Review) Approvers(configured map[string]string) ([]string, error) {
	patch, err := r.lastPatchSet()
	if err != nil {
		return nil, err
	}
	if patch.Approvals == nil {
		return nil, fmt.Errorf("review %s: last patch set has no approvals collection", r.ID)
	}
	var approvers []string
	for _, approval := range patch.Approvals {
		if approval.Type == ApprovalTypeCodeReview && approval.Value == CodeReviewMaxValue {
			if _, ok := configured[approval.By.Username]; ok {
				approvers = append(approvers, approval.By.Username)
			}
		}
	}
	return approvers, nil
}

// PatchSetCount returns the number of revisions this change went through.
func (r *Review) PatchSetCount() int {
	return len(r.PatchSets)
}

// CommitMessageWords returns the whitespace-delimited token count of
// the commit message.
func (r *Review) CommitMessageWords() int {
	return len(strings.Fields(r.CommitMessage))
}
