// Package breaking drives the export extractor and differ across every
// modified, deleted, and renamed source file in a PR, inferring renames and
// populating each finding's consumer list from the reverse-dependency
// index. Within a file, rename-pair matching always runs before
// bare-removal reporting so a renamed symbol never also surfaces as a
// spurious removed_export.
package breaking

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ducdmdev/prpulse/internal/categorize"
	"github.com/ducdmdev/prpulse/internal/exportdiff"
	"github.com/ducdmdev/prpulse/internal/exports"
	"github.com/ducdmdev/prpulse/internal/gateway"
	"github.com/ducdmdev/prpulse/internal/logging"
	"github.com/ducdmdev/prpulse/internal/prdiff"
	"github.com/ducdmdev/prpulse/internal/reversedeps"
	"github.com/ducdmdev/prpulse/internal/sigdiff"
)

// ChangeType is the closed set of breaking-change categories.
type ChangeType string

const (
	RemovedExport    ChangeType = "removed_export"
	ChangedSignature ChangeType = "changed_signature"
	ChangedType      ChangeType = "changed_type"
	RenamedExport    ChangeType = "renamed_export"
)

// Severity is the closed set of severities, fixed by ChangeType according
// to a severity table.
type Severity string

const (
	High   Severity = "high"
	Medium Severity = "medium"
	Low    Severity = "low"
)

// Change is one breaking change to a file's public export surface.
type Change struct {
	FilePath   string
	SymbolName string
	Before     string
	After      string // empty means absent
	HasAfter   bool
	Consumers  []string
	Severity   Severity
	Type       ChangeType
}

const maxConcurrency = 16

// Detector finds breaking changes across a PR's changed source files.
type Detector struct {
	gw          gateway.Gateway
	reverseDeps *reversedeps.Index
	logger      *logging.Logger
}

// NewDetector builds a Detector over gw, consulting reverseDeps for
// consumer lookups. reverseDeps must already be built (or buildable by the
// caller); the detector never triggers its own scan.
func NewDetector(gw gateway.Gateway, reverseDeps *reversedeps.Index, logger *logging.Logger) *Detector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Detector{gw: gw, reverseDeps: reverseDeps, logger: logger}
}

// Detect analyzes every analyzable, source-category changed file between
// base and head and returns the breaking changes found. Per-file read or
// parse failures are logged and skipped; they never abort the pass.
func (d *Detector) Detect(ctx context.Context, base, head string, files []prdiff.ChangedFile) ([]Change, error) {
	var candidates []prdiff.ChangedFile
	for _, f := range files {
		if f.Category != categorize.Source || !categorize.IsAnalyzableSource(f.Path) {
			continue
		}
		if f.Status == prdiff.Added {
			continue
		}
		candidates = append(candidates, f)
	}

	results := make([][]Change, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i, f := range candidates {
		i, f := i, f
		g.Go(func() error {
			results[i] = d.detectOne(gctx, base, head, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Change
	for _, r := range results {
		all = append(all, r...)
	}
	for i := range all {
		all[i].Consumers = d.reverseDeps.Importers(all[i].FilePath)
	}
	return all, nil
}

func (d *Detector) detectOne(ctx context.Context, base, head string, f prdiff.ChangedFile) []Change {
	switch f.Status {
	case prdiff.Deleted:
		return d.detectDeleted(ctx, base, f)
	case prdiff.Renamed:
		return d.detectRenamed(ctx, base, head, f)
	default:
		return d.detectModified(ctx, base, head, f)
	}
}

func (d *Detector) detectDeleted(ctx context.Context, base string, f prdiff.ChangedFile) []Change {
	content, err := d.gw.ReadAt(ctx, base, f.BasePath())
	if err != nil {
		d.warn(f.Path, err)
		return nil
	}
	fe := exports.Extract(string(content), f.BasePath())
	changes := make([]Change, 0, len(fe.Symbols))
	for _, s := range fe.Symbols {
		changes = append(changes, removedChange(f.Path, s))
	}
	return changes
}

func (d *Detector) detectRenamed(ctx context.Context, base, head string, f prdiff.ChangedFile) []Change {
	baseContent, err := d.gw.ReadAt(ctx, base, f.OldPath)
	if err != nil {
		d.warn(f.OldPath, err)
		return nil
	}
	headContent, err := d.gw.ReadAt(ctx, head, f.Path)
	if err != nil {
		d.warn(f.Path, err)
		return nil
	}

	baseExports := exports.Extract(string(baseContent), f.OldPath)
	headExports := exports.Extract(string(headContent), f.Path)

	var changes []Change
	for _, b := range baseExports.Symbols {
		if h, ok := findSameNameKind(headExports, b); ok {
			changes = append(changes, Change{
				FilePath:   f.Path,
				SymbolName: b.Name,
				Before:     describe(b),
				After:      describe(h),
				HasAfter:   true,
				Severity:   Low,
				Type:       RenamedExport,
			})
			continue
		}
		changes = append(changes, removedChange(f.Path, b))
	}
	return changes
}

func (d *Detector) detectModified(ctx context.Context, base, head string, f prdiff.ChangedFile) []Change {
	baseContent, err := d.gw.ReadAt(ctx, base, f.BasePath())
	if err != nil {
		d.warn(f.Path, err)
		return nil
	}
	headContent, err := d.gw.ReadAt(ctx, head, f.Path)
	if err != nil {
		d.warn(f.Path, err)
		return nil
	}

	baseExports := exports.Extract(string(baseContent), f.BasePath())
	headExports := exports.Extract(string(headContent), f.Path)
	diff := exportdiff.Compare(baseExports, headExports)

	removed, added, renames := inferRenames(diff.Removed, diff.Added)

	var changes []Change
	for _, pair := range renames {
		changes = append(changes, Change{
			FilePath:   f.Path,
			SymbolName: pair.base.Name,
			Before:     describe(pair.base),
			After:      describe(pair.head),
			HasAfter:   true,
			Severity:   Low,
			Type:       RenamedExport,
		})
	}
	_ = added // remaining added symbols are new public surface, not a breaking change

	for _, r := range removed {
		changes = append(changes, removedChange(f.Path, r))
	}

	for _, m := range diff.Modified {
		if m.Base.Kind != m.Head.Kind {
			changes = append(changes, Change{
				FilePath:   f.Path,
				SymbolName: m.Base.Name,
				Before:     describe(m.Base),
				After:      describe(m.Head),
				HasAfter:   true,
				Severity:   Medium,
				Type:       ChangedType,
			})
			continue
		}
		sd := sigdiff.Diff(m.Base.Signature, m.Head.Signature)
		if sd.Changed {
			changes = append(changes, Change{
				FilePath:   f.Path,
				SymbolName: m.Base.Name,
				Before:     describe(m.Base),
				After:      sd.Details,
				HasAfter:   true,
				Severity:   Medium,
				Type:       ChangedSignature,
			})
		}
	}

	return changes
}

type renamePair struct {
	base exports.Symbol
	head exports.Symbol
}

// inferRenames pairs each removed symbol with an unmatched added symbol of
// the same kind whose signature the signature differ calls unchanged. A
// matched pair is removed from both remaining lists; the match order
// follows the removed-symbol order for determinism.
func inferRenames(removed, added []exports.Symbol) (remainingRemoved, remainingAdded []exports.Symbol, pairs []renamePair) {
	usedAdded := make([]bool, len(added))
	remainingRemoved = make([]exports.Symbol, 0, len(removed))

	for _, r := range removed {
		matched := -1
		for i, a := range added {
			if usedAdded[i] || a.Kind != r.Kind {
				continue
			}
			if sigdiff.Diff(r.Signature, a.Signature).Changed {
				continue
			}
			matched = i
			break
		}
		if matched >= 0 {
			usedAdded[matched] = true
			pairs = append(pairs, renamePair{base: r, head: added[matched]})
			continue
		}
		remainingRemoved = append(remainingRemoved, r)
	}

	for i, a := range added {
		if !usedAdded[i] {
			remainingAdded = append(remainingAdded, a)
		}
	}
	return remainingRemoved, remainingAdded, pairs
}

func findSameNameKind(fe exports.FileExports, b exports.Symbol) (exports.Symbol, bool) {
	for _, s := range fe.Symbols {
		if s.Name == b.Name && s.Kind == b.Kind {
			return s, true
		}
	}
	return exports.Symbol{}, false
}

func removedChange(filePath string, s exports.Symbol) Change {
	return Change{
		FilePath:   filePath,
		SymbolName: s.Name,
		Before:     describe(s),
		HasAfter:   false,
		Severity:   High,
		Type:       RemovedExport,
	}
}

func describe(s exports.Symbol) string {
	if s.Signature != nil && *s.Signature != "" {
		return string(s.Kind) + " " + s.Name + *s.Signature
	}
	return string(s.Kind) + " " + s.Name
}

func (d *Detector) warn(path string, err error) {
	d.logger.Warn("breaking change analysis skipped file", map[string]interface{}{
		"path":  path,
		"error": err.Error(),
	})
}

// SortStable orders changes deterministically by file then symbol name,
// for callers (tests, report renderers) that want reproducible output even
// though detection itself gives no cross-file ordering guarantee.
func SortStable(changes []Change) {
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].FilePath != changes[j].FilePath {
			return changes[i].FilePath < changes[j].FilePath
		}
		return changes[i].SymbolName < changes[j].SymbolName
	})
}
