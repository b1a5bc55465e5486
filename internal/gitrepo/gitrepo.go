// Package gitrepo wraps the git command line as the versioned-storage
// collaborator: file contents at a commit, commit history for a path, and
// the current head.
package gitrepo

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotGitRepo indicates the directory is not a git repository.
var ErrNotGitRepo = errors.New("not a git repository")

// ErrCommitNotFound indicates the specified commit does not exist.
var ErrCommitNotFound = errors.New("commit not found")

// ErrNoCommits indicates the repository has no commits yet.
var ErrNoCommits = errors.New("repository has no commits")

// CommitInfo identifies a commit in history listings.
type CommitInfo struct {
	SHA     string
	Message string
}

// Repo is a handle on a git working copy.
type Repo struct {
	root string
}

// FindRepoRoot finds the root of the git repository containing the given
// path. Returns ErrNotGitRepo if not in a git repository.
func FindRepoRoot(path string) (string, error) {
	cmd := exec.Command("git", "-C", path, "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", ErrNotGitRepo
	}
	return strings.TrimSpace(string(output)), nil
}

// Open locates the repository containing path and returns a handle on it.
func Open(path string) (*Repo, error) {
	root, err := FindRepoRoot(path)
	if err != nil {
		return nil, err
	}
	return &Repo{root: root}, nil
}

// Root returns the repository's top-level directory.
func (r *Repo) Root() string {
	return r.root
}

// ValidateCommit verifies that a commit reference exists. Supports SHA,
// HEAD, HEAD~N, branch names, tags, etc. Returns the resolved full SHA or
// ErrCommitNotFound.
func (r *Repo) ValidateCommit(commitRef string) (string, error) {
	cmd := exec.Command("git", "-C", r.root, "rev-parse", "--verify", commitRef+"^{commit}")
	output, err := cmd.Output()
	if err != nil {
		return "", ErrCommitNotFound
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentHead returns the full SHA the repository head points at, or
// ErrNoCommits for a freshly initialized repository.
func (r *Repo) CurrentHead() (string, error) {
	cmd := exec.Command("git", "-C", r.root, "rev-parse", "--verify", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "", ErrNoCommits
	}
	return strings.TrimSpace(string(output)), nil
}

// ReadFileAtCommit retrieves the contents of a repo-relative path at a
// specific commit. Returns ErrCommitNotFound if the commit doesn't exist,
// or an empty slice if the file didn't exist at that commit.
func (r *Repo) ReadFileAtCommit(path, commitRef string) ([]byte, error) {
	sha, err := r.ValidateCommit(commitRef)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command("git", "-C", r.root, "show", sha+":"+path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return []byte{}, nil
		}
		return nil, fmt.Errorf("reading %s at %s: %w", path, commitRef, err)
	}
	return output, nil
}

// IterCommits returns the commits that touched a repo-relative path, newest
// first. An untracked path yields no commits, not an error.
func (r *Repo) IterCommits(path string) ([]CommitInfo, error) {
	cmd := exec.Command("git", "-C", r.root, "log", "--oneline", "--follow", "--", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, nil
	}
	return parseLogOneline(output), nil
}

// CommitsSince returns the commits between commitRef and HEAD that touched
// a repo-relative path, newest first.
func (r *Repo) CommitsSince(path, commitRef string) ([]CommitInfo, error) {
	if _, err := r.ValidateCommit(commitRef); err != nil {
		return nil, err
	}
	cmd := exec.Command("git", "-C", r.root, "log", "--oneline", commitRef+"..HEAD", "--", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, nil
	}
	return parseLogOneline(output), nil
}

// IsFileTracked checks whether a repo-relative path is tracked by git.
func (r *Repo) IsFileTracked(path string) bool {
	cmd := exec.Command("git", "-C", r.root, "ls-files", path)
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(output)) != ""
}

// ShortSHA returns a short version of a SHA (up to 8 chars).
func ShortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

// parseLogOneline parses git log --oneline output.
func parseLogOneline(data []byte) []CommitInfo {
	var commits []CommitInfo
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		ci := CommitInfo{SHA: parts[0]}
		if len(parts) > 1 {
			ci.Message = parts[1]
		}
		commits = append(commits, ci)
	}
	return commits
}
