// Package gitutil wraps the git CLI as a subprocess, scoped to what the
// repo gateway needs: diff stats, blob reads, and ref resolution.
package gitutil

import (
	"context"
	"os/exec"
	"strings"
	"time"

	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/ducdmdev/prpulse/internal/errors"
	"github.com/ducdmdev/prpulse/internal/logging"
)

// Runner executes git subcommands against a single repository root.
type Runner struct {
	repoRoot string
	timeout  time.Duration
	logger   *logging.Logger
}

// NewRunner validates that repoRoot is a git working tree and returns a
// Runner scoped to it.
func NewRunner(repoRoot string, timeout time.Duration, logger *logging.Logger) (*Runner, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r := &Runner{repoRoot: repoRoot, timeout: timeout, logger: logger}
	if !r.isRepository() {
		return nil, errors.New(errors.NotARepository, "not a git repository").WithPath(repoRoot)
	}
	return r, nil
}

func (r *Runner) isRepository() bool {
	_, err := r.run(context.Background(), "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// RepoRoot returns the repository root this runner operates over.
func (r *Runner) RepoRoot() string {
	return r.repoRoot
}

func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.repoRoot

	r.logger.Debug("executing git command", map[string]interface{}{"args": args})

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.Wrap(errors.InternalError, "git command timed out", err)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", errors.Wrap(errors.InternalError, "git command failed", err).
				WithDetails(map[string]interface{}{"args": args, "stderr": string(exitErr.Stderr)})
		}
		return "", errors.Wrap(errors.InternalError, "failed to execute git command", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *Runner) runLines(ctx context.Context, args ...string) ([]string, error) {
	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	lines := strings.Split(out, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		result = append(result, line)
	}
	return result, nil
}

// ResolveRef validates that ref names a commit-ish; returns BadRef otherwise.
func (r *Runner) ResolveRef(ctx context.Context, ref string) (string, error) {
	sha, err := r.run(ctx, "rev-parse", "--verify", ref+"^{commit}")
	if err != nil {
		return "", errors.Wrap(errors.BadRef, "ref does not resolve to a commit", err).WithPath(ref)
	}
	return sha, nil
}

// DefaultBase resolves the repository's conventional default branch,
// preferring main, falling back to master, otherwise main.
func (r *Runner) DefaultBase(ctx context.Context) string {
	if _, err := r.ResolveRef(ctx, "main"); err == nil {
		return "main"
	}
	if _, err := r.ResolveRef(ctx, "master"); err == nil {
		return "master"
	}
	return "main"
}

// DiffEntry is one file-level change between two refs.
type DiffEntry struct {
	Path      string
	OldPath   string // set only for renames
	Additions int    // -1 for binary files
	Deletions int    // -1 for binary files
	RawStatus string // A, M, D, or R
}

// DiffEntries runs a full unified diff between two refs and parses it with
// go-diff, recovering fully-expanded rename paths straight from the
// "---"/"+++" headers (no brace-fold expansion needed) and deriving
// per-file additions/deletions by walking each hunk's body.
func (r *Runner) DiffEntries(ctx context.Context, base, head string) ([]DiffEntry, error) {
	out, err := r.run(ctx, "diff", "--no-color", "-M", base+"..."+head)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	fileDiffs, parseErr := godiff.ParseMultiFileDiff([]byte(out + "\n"))
	if parseErr != nil {
		return nil, errors.Wrap(errors.InternalError, "failed to parse git diff output", parseErr)
	}

	result := make([]DiffEntry, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		result = append(result, entryFromFileDiff(fd))
	}
	return result, nil
}

func entryFromFileDiff(fd *godiff.FileDiff) DiffEntry {
	oldPath := cleanDiffPath(fd.OrigName)
	newPath := cleanDiffPath(fd.NewName)

	entry := DiffEntry{Path: newPath}
	switch {
	case oldPath == "":
		entry.RawStatus = "A"
	case newPath == "":
		entry.RawStatus = "D"
		entry.Path = oldPath
	case oldPath != newPath:
		entry.RawStatus = "R"
		entry.OldPath = oldPath
	default:
		entry.RawStatus = "M"
	}

	if isBinaryFileDiff(fd) {
		entry.Additions = -1
		entry.Deletions = -1
		return entry
	}

	added, removed := countHunkLines(fd.Hunks)
	entry.Additions = added
	entry.Deletions = removed
	return entry
}

func isBinaryFileDiff(fd *godiff.FileDiff) bool {
	if len(fd.Hunks) > 0 {
		return false
	}
	for _, ext := range fd.Extended {
		if strings.Contains(ext, "Binary files") {
			return true
		}
	}
	return false
}

func countHunkLines(hunks []*godiff.Hunk) (added, removed int) {
	for _, h := range hunks {
		for _, line := range strings.Split(string(h.Body), "\n") {
			if line == "" {
				continue
			}
			switch line[0] {
			case '+':
				added++
			case '-':
				removed++
			}
		}
	}
	return added, removed
}

// cleanDiffPath strips go-diff's a/ b/ prefixes and normalizes /dev/null to
// the empty string (used to detect added/deleted files).
func cleanDiffPath(p string) string {
	if p == "" || p == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		return p[2:]
	}
	return p
}

// ReadBlob reads a file's content at a given ref. Returns FileNotAtRef when
// the path does not exist there.
func (r *Runner) ReadBlob(ctx context.Context, ref, path string) ([]byte, error) {
	out, err := r.run(ctx, "show", ref+":"+path)
	if err != nil {
		return nil, errors.Wrap(errors.FileNotAtRef, "file not readable at ref", err).WithPath(path)
	}
	return []byte(out), nil
}

// EnumerateFiles lists every file tracked by git at the given ref.
func (r *Runner) EnumerateFiles(ctx context.Context, ref string) ([]string, error) {
	return r.runLines(ctx, "ls-tree", "-r", "--name-only", ref)
}
