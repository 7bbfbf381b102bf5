// Package prdiff turns raw gateway change records into classified
// ChangedFile values, applying file categorization and language detection
// to the new (head-side) path so a renamed "a.js -> a.ts" reports as
// typescript.
package prdiff

import (
	"github.com/ducdmdev/prpulse/internal/categorize"
	"github.com/ducdmdev/prpulse/internal/gateway"
)

// Status mirrors gateway.ChangeStatus at the diff-assembler layer.
type Status = gateway.ChangeStatus

const (
	Added    = gateway.Added
	Modified = gateway.Modified
	Deleted  = gateway.Deleted
	Renamed  = gateway.Renamed
	Copied   = gateway.Copied
)

// ChangedFile is one classified file-level record between base and head.
type ChangedFile struct {
	Path      string
	OldPath   string
	Status    Status
	Additions int
	Deletions int
	Language  string
	Category  categorize.Category
}

// Assemble classifies a batch of raw gateway changes into ChangedFiles.
func Assemble(raw []gateway.RawChange) []ChangedFile {
	out := make([]ChangedFile, 0, len(raw))
	for _, r := range raw {
		out = append(out, assembleOne(r))
	}
	return out
}

func assembleOne(r gateway.RawChange) ChangedFile {
	status := r.Status
	oldPath := r.OldPath

	// A record reported as modified but carrying an OldPath that differs
	// from Path is upgraded to renamed so the invariant holds:
	// status=renamed iff oldPath is set and differs from path. Path itself
	// is not parsed: a textual rename marker ("old => new") inside it is
	// left as is and does not trigger the upgrade.
	if status == Modified && oldPath != "" && oldPath != r.Path {
		status = Renamed
	}
	if status != Renamed {
		oldPath = ""
	}

	return ChangedFile{
		Path:      r.Path,
		OldPath:   oldPath,
		Status:    status,
		Additions: maxZero(r.Additions),
		Deletions: maxZero(r.Deletions),
		Language:  categorize.Language(r.Path),
		Category:  categorize.Categorize(r.Path),
	}
}

func maxZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// IsAnalyzableSource reports whether a changed file is both source-category
// and lexically analyzable by the export extractor / signature differ.
func (c ChangedFile) IsAnalyzableSource() bool {
	return c.Category == categorize.Source && categorize.IsAnalyzableSource(c.Path)
}

// BasePath returns the path the file had at base, falling back to the
// head path when there is no rename.
func (c ChangedFile) BasePath() string {
	if c.Status == Renamed && c.OldPath != "" {
		return c.OldPath
	}
	return c.Path
}
