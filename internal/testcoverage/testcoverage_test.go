package testcoverage

import (
	"testing"

	"github.com/ducdmdev/prpulse/internal/categorize"
	"github.com/ducdmdev/prpulse/internal/prdiff"
)

func TestCheckNoChangedSourceDefaultsToFullCoverage(t *testing.T) {
	r := Check(nil, func(string) bool { return false })
	if r.CoverageRatio != 1 {
		t.Fatalf("expected coverage ratio 1 for zero changed source files, got %v", r.CoverageRatio)
	}
}

func TestCheckCoveredWhenTestChanged(t *testing.T) {
	files := []prdiff.ChangedFile{
		{Path: "src/utils/parser.ts", Category: categorize.Source},
		{Path: "test/utils/parser.ts", Category: categorize.Test},
	}
	exists := func(p string) bool { return p == "test/utils/parser.ts" }
	r := Check(files, exists)
	if r.ChangedSourceFiles != 1 || r.SourceFilesWithTestChanges != 1 {
		t.Fatalf("unexpected report: %+v", r)
	}
	if r.CoverageRatio != 1 {
		t.Fatalf("expected ratio 1, got %v", r.CoverageRatio)
	}
	if !r.Gaps[0].TestFileExists || !r.Gaps[0].TestFileChanged {
		t.Fatalf("unexpected gap: %+v", r.Gaps[0])
	}
}

func TestCheckGapWhenTestFileMissing(t *testing.T) {
	files := []prdiff.ChangedFile{{Path: "src/lib.ts", Category: categorize.Source}}
	r := Check(files, func(string) bool { return false })
	if r.CoverageRatio != 0 {
		t.Fatalf("expected ratio 0, got %v", r.CoverageRatio)
	}
	if r.Gaps[0].TestFileExists {
		t.Fatal("expected no candidate to exist")
	}
}

func TestCheckExistsButNotChangedIsNotCovered(t *testing.T) {
	files := []prdiff.ChangedFile{{Path: "src/lib.ts", Category: categorize.Source}}
	exists := func(p string) bool { return p == "src/lib.test.ts" }
	r := Check(files, exists)
	if r.CoverageRatio != 0 {
		t.Fatalf("a file that exists but wasn't changed in this PR must not count as covered, got %v", r.CoverageRatio)
	}
	if !r.Gaps[0].TestFileExists || r.Gaps[0].TestFileChanged {
		t.Fatalf("unexpected gap: %+v", r.Gaps[0])
	}
}

func TestCandidatesStripsSrcPrefixForTopLevelMirror(t *testing.T) {
	cands := candidates("src/utils/parser.ts")
	found := false
	for _, c := range cands {
		if c == "test/utils/parser.ts" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected test/utils/parser.ts among candidates, got %+v", cands)
	}
}

func TestOnlySourceCategoryParticipates(t *testing.T) {
	files := []prdiff.ChangedFile{
		{Path: "README.md", Category: categorize.Doc},
		{Path: "package.json", Category: categorize.Config},
	}
	r := Check(files, func(string) bool { return true })
	if r.ChangedSourceFiles != 0 {
		t.Fatalf("expected 0 changed source files, got %d", r.ChangedSourceFiles)
	}
}
