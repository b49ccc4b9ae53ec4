// Package gitops shells out to git to version the project directory.
package gitops

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/tally/internal/events"
)

// Init initializes a new git repository at dir.
func Init(dir string) error {
	cmd := exec.Command("git", "init")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// CommitAll stages all files and creates a commit. Returns the short commit hash.
func CommitAll(dir, message, authorName, authorEmail string) (string, error) {
	author := fmt.Sprintf("%s <%s>", authorName, authorEmail)

	add := exec.Command("git", "add", "-A")
	add.Dir = dir
	if out, err := add.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	commit := exec.Command("git", "commit", "-m", message, "--author", author)
	commit.Dir = dir
	commit.Env = append(os.Environ(),
		"GIT_COMMITTER_NAME="+authorName,
		"GIT_COMMITTER_EMAIL="+authorEmail,
	)
	if out, err := commit.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	rev := exec.Command("git", "rev-parse", "--short", "HEAD")
	rev.Dir = dir
	out, err := rev.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// HasChanges reports whether the work tree at dir differs from HEAD,
// untracked files included.
func HasChanges(dir string) (bool, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return len(strings.TrimSpace(string(out))) > 0, nil
}

// IsRepo reports whether dir is inside a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Committer commits the project directory after each ledger event.
type Committer struct {
	Dir         string
	AuthorName  string
	AuthorEmail string
	Log         *slog.Logger
}

var _ events.Publisher = (*Committer)(nil)

func (c *Committer) Publish(_ context.Context, e events.Event) error {
	changed, err := HasChanges(c.Dir)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.EntityID)
	if e.Details != "" {
		msg += "\n\n" + e.Details
	}
	hash, err := CommitAll(c.Dir, msg, c.AuthorName, c.AuthorEmail)
	if err != nil {
		return err
	}
	if c.Log != nil {
		c.Log.Debug("committed ledger change", "kind", e.Kind, "id", e.EntityID, "commit", hash)
	}
	return nil
}
