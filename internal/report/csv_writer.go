package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/radszy/gerritstats/internal/models"
)

// header is shared by every report surface
var header = []string{"User", "Repo", "CH", "AP", "CM", "CR", "CR/CH", "CW", "CW/CH", "PS", "PS/CH"}

// Report file names
const (
	SimpleFileName   = "stats.csv"
	DetailedFileName = "detailed.csv"
)

// CSVWriter renders an aggregated statistics mapping into the two CSV
// reports.
type CSVWriter struct {
	outputDir string
	names     map[string]string
}

// NewCSVWriter creates a writer emitting into outputDir, resolving
// usernames to display names through the configured name table.
func NewCSVWriter(outputDir string, names map[string]string) *CSVWriter {
	return &CSVWriter{
		outputDir: outputDir,
		names:     names,
	}
}

// WriteSimple writes stats.csv: the average row first, then one "All"
// row per user.
func (w *CSVWriter) WriteSimple(stats models.UserStatistics, avg *models.Stats) error {
	return w.writeFile(SimpleFileName, func(cw *csv.Writer) error {
		if err := cw.Write(record("Average", models.AllRepositories, avg)); err != nil {
			return err
		}
		for _, username := range stats.Usernames() {
			all, ok := stats[username][models.AllRepositories]
			if !ok {
				return fmt.Errorf("user %q has no %q row", username, models.AllRepositories)
			}
			if err := cw.Write(record(displayName(w.names, username), models.AllRepositories, all)); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteDetailed writes detailed.csv: one row per user x repository
// cell, "All" rows included.
func (w *CSVWriter) WriteDetailed(stats models.UserStatistics) error {
	return w.writeFile(DetailedFileName, func(cw *csv.Writer) error {
		for _, username := range stats.Usernames() {
			for _, repo := range stats.Repositories(username) {
				if err := cw.Write(record(displayName(w.names, username), repo, stats[username][repo])); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeFile creates one report file, writes the header, hands the
// writer to body, and flushes.
func (w *CSVWriter) writeFile(name string, body func(*csv.Writer) error) error {
	path := filepath.Join(w.outputDir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", name, err)
	}
	if err := body(cw); err != nil {
		return fmt.Errorf("failed to write records to %s: %w", name, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return nil
}

// displayName resolves a username to its configured display name.
func displayName(names map[string]string, username string) string {
	if name, ok := names[username]; ok {
		return name
	}
	return username
}

// record renders one row. The per-change ratios are computed fresh per
// row with no zero guard: a cell with no owned changes yields NaN or
// +Inf tokens, which is accepted out of the report format.
func record(user, repo string, s *models.Stats) []string {
	changes := float64(s.Changes)
	return []string{
		user,
		repo,
		strconv.Itoa(s.Changes),
		strconv.Itoa(s.Approvals),
		strconv.Itoa(s.CommentsMade),
		strconv.Itoa(s.CommentsReceived),
		formatRatio(float64(s.CommentsReceived) / changes),
		strconv.Itoa(s.CommitWords),
		formatRatio(float64(s.CommitWords) / changes),
		strconv.Itoa(s.PatchSets),
		formatRatio(float64(s.PatchSets) / changes),
	}
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
