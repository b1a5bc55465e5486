package gitrepo

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// initRepo creates a throwaway git repository with one committed file.
func initRepo(t *testing.T) (string, *Repo) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")

	if err := os.WriteFile(filepath.Join(dir, "records.jsonl"), []byte("{\"id\":\"a\"}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", "records.jsonl")
	run("commit", "-q", "-m", "add records")

	repo, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return dir, repo
}

func commitChange(t *testing.T, dir, content, msg string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "records.jsonl"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, args := range [][]string{{"add", "records.jsonl"}, {"commit", "-q", "-m", msg}} {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
}

func TestOpenOutsideRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	if _, err := Open(os.TempDir()); !errors.Is(err, ErrNotGitRepo) {
		t.Errorf("Open error = %v, want ErrNotGitRepo", err)
	}
}

func TestValidateCommit(t *testing.T) {
	_, repo := initRepo(t)

	sha, err := repo.ValidateCommit("HEAD")
	if err != nil {
		t.Fatalf("ValidateCommit failed: %v", err)
	}
	if len(sha) != 40 {
		t.Errorf("resolved SHA = %q, want full 40-char SHA", sha)
	}

	if _, err := repo.ValidateCommit("no-such-ref"); !errors.Is(err, ErrCommitNotFound) {
		t.Errorf("ValidateCommit error = %v, want ErrCommitNotFound", err)
	}
}

func TestReadFileAtCommit(t *testing.T) {
	dir, repo := initRepo(t)
	commitChange(t, dir, "{\"id\":\"a\"}\n{\"id\":\"b\"}\n", "add b")

	head, err := repo.CurrentHead()
	if err != nil {
		t.Fatalf("CurrentHead failed: %v", err)
	}

	current, err := repo.ReadFileAtCommit("records.jsonl", head)
	if err != nil {
		t.Fatalf("ReadFileAtCommit failed: %v", err)
	}
	if string(current) != "{\"id\":\"a\"}\n{\"id\":\"b\"}\n" {
		t.Errorf("content at HEAD = %q", current)
	}

	previous, err := repo.ReadFileAtCommit("records.jsonl", "HEAD~1")
	if err != nil {
		t.Fatalf("ReadFileAtCommit failed: %v", err)
	}
	if string(previous) != "{\"id\":\"a\"}\n" {
		t.Errorf("content at HEAD~1 = %q", previous)
	}

	missing, err := repo.ReadFileAtCommit("nonexistent.jsonl", head)
	if err != nil {
		t.Fatalf("ReadFileAtCommit failed: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("missing file content = %q, want empty", missing)
	}
}

func TestIterCommitsNewestFirst(t *testing.T) {
	dir, repo := initRepo(t)
	commitChange(t, dir, "{\"id\":\"a\"}\n{\"id\":\"b\"}\n", "add b")

	commits, err := repo.IterCommits("records.jsonl")
	if err != nil {
		t.Fatalf("IterCommits failed: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("got %d commits, want 2", len(commits))
	}
	if commits[0].Message != "add b" || commits[1].Message != "add records" {
		t.Errorf("commit order wrong: %+v", commits)
	}
}

func TestCommitsSince(t *testing.T) {
	dir, repo := initRepo(t)
	commitChange(t, dir, "{\"id\":\"a\"}\n{\"id\":\"b\"}\n", "add b")
	commitChange(t, dir, "{\"id\":\"a\"}\n{\"id\":\"b\"}\n{\"id\":\"c\"}\n", "add c")

	commits, err := repo.CommitsSince("records.jsonl", "HEAD~2")
	if err != nil {
		t.Fatalf("CommitsSince failed: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("got %d commits, want 2", len(commits))
	}
	if commits[0].Message != "add c" {
		t.Errorf("newest commit = %+v", commits[0])
	}

	if _, err := repo.CommitsSince("records.jsonl", "bogus"); !errors.Is(err, ErrCommitNotFound) {
		t.Errorf("CommitsSince error = %v, want ErrCommitNotFound", err)
	}
}

func TestIsFileTracked(t *testing.T) {
	_, repo := initRepo(t)
	if !repo.IsFileTracked("records.jsonl") {
		t.Error("records.jsonl should be tracked")
	}
	if repo.IsFileTracked("untracked.txt") {
		t.Error("untracked.txt should not be tracked")
	}
}

func TestShortSHA(t *testing.T) {
	if got := ShortSHA("0123456789abcdef"); got != "01234567" {
		t.Errorf("ShortSHA = %q", got)
	}
	if got := ShortSHA("abc"); got != "abc" {
		t.Errorf("ShortSHA = %q", got)
	}
}
