package gerrit

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/radszy/gerritstats/internal/models"
	"github.com/radszy/gerritstats/pkg/config"
	"github.com/radszy/gerritstats/pkg/logger"
)

// queryOptions make gerrit query include approvals, reviewers,
// comments, the commit message and file metadata in its JSON output.
var queryOptions = []string{
	"--all-approvals",
	"--all-reviewers",
	"--comments",
	"--commit-message",
	"--files",
	"--format", "JSON",
}

// Client runs gerrit query commands over the local ssh client.
type Client struct {
	server  string
	port    string
	sshUser string
	binary  string
}

// NewClient creates a client for the configured server. sshUser is the
// login identity for the ssh connection, not a statistics subject.
func NewClient(cfg *config.Config, sshUser string) *Client {
	return &Client{
		server:  cfg.Server,
		port:    cfg.Port,
		sshUser: sshUser,
		binary:  cfg.SSHBinary(),
	}
}

// queryJob is one per-user fetch task
type queryJob struct {
	ID       string
	Username string
	Args     []string
}

// newQueryJob builds the ssh argument list requesting the merged
// changes owned by one user inside their reporting window.
func (c *Client) newQueryJob(user config.User) queryJob {
	args := []string{
		"-p", c.port,
		fmt.Sprintf("%s@%s", c.sshUser, c.server),
		"gerrit", "query",
	}
	args = append(args, queryOptions...)
	args = append(args,
		"status:merged",
		fmt.Sprintf("after:%s", user.From.String()),
		fmt.Sprintf("before:%s", user.To.String()),
		fmt.Sprintf("owner:%s", user.Username),
	)
	return queryJob{
		ID:       uuid.New().String(),
		Username: user.Username,
		Args:     args,
	}
}

// FetchAll queries the server for every configured user concurrently
// and blocks until all queries finish. The first failing query aborts
// the whole fetch; there is no retry and no partial result.
func (c *Client) FetchAll(ctx context.Context, users []config.User) ([]*models.Review, error) {
	jobs := make([]queryJob, len(users))
	outputs := make([]string, len(users))

	logger.Infof("Spawning %d fetch tasks", len(users))

	g, ctx := errgroup.WithContext(ctx)
	for i, user := range users {
		jobs[i] = c.newQueryJob(user)
		i, job := i, jobs[i]
		g.Go(func() error {
			entry := logger.WithFields(logrus.Fields{
				"job_id":   job.ID,
				"username": job.Username,
			})
			entry.Debug("Fetching merged changes")
			output, err := c.run(ctx, job)
			if err != nil {
				return err
			}
			entry.Debug("Fetch completed")
			outputs[i] = output
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var reviews []*models.Review
	for i := range outputs {
		parsed, err := ParseOutput(outputs[i])
		if err != nil {
			return nil, fmt.Errorf("output for user %q: %w", jobs[i].Username, err)
		}
		reviews = append(reviews, parsed...)
	}
	return reviews, nil
}

// run spawns one ssh command and collects its stdout.
func (c *Client) run(ctx context.Context, job queryJob) (string, error) {
	cmd := exec.CommandContext(ctx, c.binary, job.Args...)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("gerrit query for user %q failed: %w", job.Username, err)
	}
	if !utf8.Valid(output) {
		return "", fmt.Errorf("gerrit query for user %q returned non-UTF8 output", job.Username)
	}
	return string(output), nil
}

// ParseOutput decodes gerrit query output into reviews. Lines are
// processed from last to first with the true last line skipped: the
// final line is Gerrit's query-stats trailer, not a review record.
func ParseOutput(output string) ([]*models.Review, error) {
	trimmed := strings.TrimRight(output, "\n")
	if trimmed == "" {
		return nil, nil
	}
	lines := strings.Split(trimmed, "\n")

	var reviews []*models.Review
	for i := len(lines) - 2; i >= 0; i-- {
		review, err := models.ParseReview(lines[i])
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}
