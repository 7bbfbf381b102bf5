// Package pranalysis is the single library entrypoint that wires the
// gateway, diff assembler, reverse-dependency index, breaking-change
// detector, coverage checker, doc-staleness checker, impact graph, and risk
// aggregator into one PR-level analysis.
package pranalysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ducdmdev/prpulse/internal/breaking"
	"github.com/ducdmdev/prpulse/internal/categorize"
	"github.com/ducdmdev/prpulse/internal/docstale"
	prerrors "github.com/ducdmdev/prpulse/internal/errors"
	"github.com/ducdmdev/prpulse/internal/gateway"
	"github.com/ducdmdev/prpulse/internal/impact"
	"github.com/ducdmdev/prpulse/internal/logging"
	"github.com/ducdmdev/prpulse/internal/prdiff"
	"github.com/ducdmdev/prpulse/internal/reversedeps"
	"github.com/ducdmdev/prpulse/internal/risk"
	"github.com/ducdmdev/prpulse/internal/testcoverage"
)

// Options configures one PR analysis run.
type Options struct {
	RepoPath     string
	BaseRef      string // empty resolves via gateway.DefaultBase
	HeadRef      string
	SkipBreaking bool
	SkipCoverage bool
	SkipDocs     bool
	MaxDepth     int
	Timeout      time.Duration
	Logger       *logging.Logger

	// Gateway overrides the default git-backed gateway; nil constructs one
	// from RepoPath via gateway.New. Exposed so callers (and tests) can
	// substitute an in-memory gateway.Gateway implementation.
	Gateway gateway.Gateway
}

// PRAnalysis is the aggregate result of analyzing one PR.
type PRAnalysis struct {
	BaseRef         string
	HeadRef         string
	ChangedFiles    []prdiff.ChangedFile
	BreakingChanges []breaking.Change
	Coverage        testcoverage.Report
	DocStaleness    docstale.Report
	Impact          impact.Graph
	Risk            risk.Assessment
}

// AnalyzePR resolves refs, lists and classifies changed files, builds the
// reverse-dependency index, then runs the breaking/coverage/docs checks
// (each individually skippable) and the always-on impact/risk stages,
// returning the aggregate plus a short human summary string.
func AnalyzePR(ctx context.Context, opts Options) (*PRAnalysis, string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	gw := opts.Gateway
	if gw == nil {
		built, err := gateway.New(opts.RepoPath, timeout, logger)
		if err != nil {
			return nil, "", err
		}
		gw = built
	}

	head := opts.HeadRef
	if head == "" {
		head = "HEAD"
	}
	base := opts.BaseRef
	if base == "" {
		resolved, err := gw.DefaultBase(ctx)
		if err != nil {
			return nil, "", err
		}
		base = resolved
	}

	raw, err := gw.ListChanged(ctx, base, head)
	if err != nil {
		return nil, "", err
	}
	files := prdiff.Assemble(raw)

	reverseDeps := reversedeps.Get(opts.RepoPath)
	if buildErr := reverseDeps.Build(ctx, gw, head); buildErr != nil {
		logger.With("reversedeps").Warn("index build failed, continuing with an empty index", map[string]interface{}{
			"error": buildErr.Error(),
		})
	}

	analysis := &PRAnalysis{BaseRef: base, HeadRef: head, ChangedFiles: files}

	if !opts.SkipBreaking {
		breakingLogger := logger.With("breaking")
		detector := breaking.NewDetector(gw, reverseDeps, breakingLogger)
		changes, breakErr := detector.Detect(ctx, base, head, files)
		if breakErr != nil {
			pe := asPRError(breakErr)
			if prerrors.IsFatal(pe.Code) {
				return nil, "", pe
			}
			breakingLogger.Warn("detection failed", map[string]interface{}{"error": breakErr.Error()})
		} else {
			breaking.SortStable(changes)
			analysis.BreakingChanges = changes
		}
	}

	if !opts.SkipCoverage {
		exists := func(p string) bool {
			_, readErr := gw.ReadAt(ctx, head, p)
			return readErr == nil
		}
		analysis.Coverage = testcoverage.Check(files, exists)
	} else {
		analysis.Coverage.CoverageRatio = 1
	}

	if !opts.SkipDocs {
		read := func(ctx context.Context, p string) ([]byte, bool) {
			if content, fsErr := os.ReadFile(filepath.Join(opts.RepoPath, p)); fsErr == nil {
				return content, true
			}
			content, readErr := gw.ReadAt(ctx, head, p)
			return content, readErr == nil
		}
		report, docErr := docstale.Check(ctx, gw, base, head, files, read)
		if docErr != nil {
			logger.With("docstale").Warn("check failed", map[string]interface{}{"error": docErr.Error()})
		} else {
			analysis.DocStaleness = report
		}
	}

	seeds := make([]string, 0, len(files))
	for _, f := range files {
		if f.Category == categorize.Source {
			seeds = append(seeds, f.Path)
		}
	}
	analysis.Impact = impact.Build(seeds, reverseDeps, opts.MaxDepth)

	analysis.Risk = risk.Aggregate(risk.Inputs{
		BreakingChanges:         analysis.BreakingChanges,
		CoverageRatio:           analysis.Coverage.CoverageRatio,
		ChangedFiles:            files,
		StaleReferenceCount:     len(analysis.DocStaleness.StaleReferences),
		IndirectlyAffectedCount: len(analysis.Impact.IndirectlyAffected),
	})

	return analysis, summarize(analysis), nil
}

func asPRError(err error) *prerrors.PRError {
	if pe, ok := err.(*prerrors.PRError); ok {
		return pe
	}
	return prerrors.Wrap(prerrors.AnalysisError, "analysis step failed", err)
}

// summarize builds the short human summary string, with a per-kind
// breaking-change breakdown.
func summarize(a *PRAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d file(s) changed, risk %s (%d/100)", len(a.ChangedFiles), a.Risk.Level, a.Risk.Score)

	if len(a.BreakingChanges) > 0 {
		byKind := map[breaking.ChangeType]int{}
		for _, c := range a.BreakingChanges {
			byKind[c.Type]++
		}
		fmt.Fprintf(&b, "; %d breaking change(s)", len(a.BreakingChanges))
		for _, kind := range []breaking.ChangeType{breaking.RemovedExport, breaking.RenamedExport, breaking.ChangedSignature, breaking.ChangedType} {
			if n := byKind[kind]; n > 0 {
				fmt.Fprintf(&b, " (%d %s)", n, kind)
			}
		}
	}

	if a.Coverage.ChangedSourceFiles > 0 {
		fmt.Fprintf(&b, "; coverage %.0f%%", a.Coverage.CoverageRatio*100)
	}

	if len(a.DocStaleness.StaleReferences) > 0 {
		fmt.Fprintf(&b, "; %d stale doc reference(s)", len(a.DocStaleness.StaleReferences))
	}

	if len(a.Impact.IndirectlyAffected) > 0 {
		fmt.Fprintf(&b, "; %d file(s) indirectly affected", len(a.Impact.IndirectlyAffected))
	}

	return b.String()
}
