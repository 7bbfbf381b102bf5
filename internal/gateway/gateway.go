// Package gateway provides read-only repository access: enumerating changed
// files between two refs, reading file content at a ref, and enumerating
// tracked source files, with vendor/build/VCS directories excluded.
package gateway

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/ducdmdev/prpulse/internal/gitutil"
	"github.com/ducdmdev/prpulse/internal/logging"
)

// ChangeStatus is the closed set of statuses the gateway reports.
type ChangeStatus string

const (
	Added    ChangeStatus = "added"
	Modified ChangeStatus = "modified"
	Deleted  ChangeStatus = "deleted"
	Renamed  ChangeStatus = "renamed"
	Copied   ChangeStatus = "copied"
)

// RawChange is one file-level entry from list_changed, before categorization.
type RawChange struct {
	Path      string
	OldPath   string // set only when Status == Renamed
	Status    ChangeStatus
	Additions int
	Deletions int
}

// Gateway is the swappable interface the rest of prpulse consumes.
type Gateway interface {
	ListChanged(ctx context.Context, base, head string) ([]RawChange, error)
	ReadAt(ctx context.Context, ref, path string) ([]byte, error)
	DefaultBase(ctx context.Context) (string, error)
	EnumerateSourceFiles(ctx context.Context) ([]string, error)
}

var excludedDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	".git":         true,
	".hg":          true,
	".svn":         true,
}

// GitGateway is the Gateway implementation backed by a local git working tree.
type GitGateway struct {
	runner *gitutil.Runner
}

// New creates a GitGateway rooted at repoPath, failing with NotARepository
// if the path is not a git working tree.
func New(repoPath string, timeout time.Duration, logger *logging.Logger) (*GitGateway, error) {
	runner, err := gitutil.NewRunner(repoPath, timeout, logger)
	if err != nil {
		return nil, err
	}
	return &GitGateway{runner: runner}, nil
}

// ListChanged returns normalized change records between base and head.
func (g *GitGateway) ListChanged(ctx context.Context, base, head string) ([]RawChange, error) {
	if _, err := g.runner.ResolveRef(ctx, base); err != nil {
		return nil, err
	}
	if _, err := g.runner.ResolveRef(ctx, head); err != nil {
		return nil, err
	}

	entries, err := g.runner.DiffEntries(ctx, base, head)
	if err != nil {
		return nil, err
	}

	changes := make([]RawChange, 0, len(entries))
	for _, e := range entries {
		status := statusFromCode(e.RawStatus)
		if status == Renamed && e.OldPath != "" && e.OldPath == e.Path {
			status = Modified
		}
		changes = append(changes, RawChange{
			Path:      e.Path,
			OldPath:   e.OldPath,
			Status:    status,
			Additions: e.Additions,
			Deletions: e.Deletions,
		})
	}
	return changes, nil
}

func statusFromCode(code string) ChangeStatus {
	switch {
	case strings.HasPrefix(code, "A"):
		return Added
	case strings.HasPrefix(code, "D"):
		return Deleted
	case strings.HasPrefix(code, "R"):
		return Renamed
	case strings.HasPrefix(code, "C"):
		return Copied
	default:
		return Modified
	}
}

// ReadAt reads a file's content at a given ref.
func (g *GitGateway) ReadAt(ctx context.Context, ref, path string) ([]byte, error) {
	return g.runner.ReadBlob(ctx, ref, path)
}

// DefaultBase resolves the repository's conventional default branch.
func (g *GitGateway) DefaultBase(ctx context.Context) (string, error) {
	return g.runner.DefaultBase(ctx), nil
}

// EnumerateSourceFiles lists every tracked file at HEAD, excluding
// vendor/build/VCS directories.
func (g *GitGateway) EnumerateSourceFiles(ctx context.Context) ([]string, error) {
	files, err := g.runner.EnumerateFiles(ctx, "HEAD")
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(files))
	for _, f := range files {
		if isExcluded(f) {
			continue
		}
		result = append(result, f)
	}
	return result, nil
}

func isExcluded(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if excludedDirs[seg] {
			return true
		}
	}
	return false
}
