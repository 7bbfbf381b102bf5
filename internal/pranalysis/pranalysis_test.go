package pranalysis

import (
	"context"
	"strings"
	"testing"

	"github.com/ducdmdev/prpulse/internal/gateway"
)

type fakeGateway struct {
	changes []gateway.RawChange
	files   map[string][]byte // "ref:path" -> content
	tracked []string
}

func key(ref, path string) string { return ref + ":" + path }

func (f *fakeGateway) ListChanged(ctx context.Context, base, head string) ([]gateway.RawChange, error) {
	return f.changes, nil
}

func (f *fakeGateway) ReadAt(ctx context.Context, ref, path string) ([]byte, error) {
	c, ok := f.files[key(ref, path)]
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}

func (f *fakeGateway) DefaultBase(ctx context.Context) (string, error) { return "main", nil }

func (f *fakeGateway) EnumerateSourceFiles(ctx context.Context) ([]string, error) {
	return f.tracked, nil
}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "not found" }

var errNotFound = notFoundErr{}

func TestAnalyzePREndToEnd(t *testing.T) {
	gw := &fakeGateway{
		changes: []gateway.RawChange{
			{Path: "src/lib.ts", Status: gateway.Modified, Additions: 10, Deletions: 2},
		},
		files: map[string][]byte{
			key("main", "src/lib.ts"): []byte("export function keep() {}\nexport function gone() {}\n"),
			key("HEAD", "src/lib.ts"): []byte("export function keep() {}\n"),
			key("HEAD", "README.md"):  []byte("Docs mention gone() here.\n"),
		},
		tracked: []string{"src/lib.ts", "README.md"},
	}

	analysis, summary, err := AnalyzePR(context.Background(), Options{
		RepoPath: "/repo",
		Gateway:  gw,
		MaxDepth: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.ChangedFiles) != 1 {
		t.Fatalf("expected 1 changed file, got %d", len(analysis.ChangedFiles))
	}
	if len(analysis.BreakingChanges) != 1 {
		t.Fatalf("expected 1 breaking change, got %d: %+v", len(analysis.BreakingChanges), analysis.BreakingChanges)
	}
	if analysis.Risk.Score == 0 {
		t.Fatal("expected a non-zero risk score")
	}
	if !strings.Contains(summary, "1 file(s) changed") {
		t.Fatalf("unexpected summary: %q", summary)
	}
	if !strings.Contains(summary, "breaking change") {
		t.Fatalf("expected summary to mention breaking changes: %q", summary)
	}
}

func TestAnalyzePRSkipsStagesWhenRequested(t *testing.T) {
	gw := &fakeGateway{
		changes: []gateway.RawChange{
			{Path: "src/lib.ts", Status: gateway.Modified},
		},
		tracked: []string{"src/lib.ts"},
	}

	analysis, _, err := AnalyzePR(context.Background(), Options{
		RepoPath:     "/repo",
		Gateway:      gw,
		SkipBreaking: true,
		SkipCoverage: true,
		SkipDocs:     true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.BreakingChanges) != 0 {
		t.Fatal("expected breaking changes to be skipped")
	}
	if analysis.Coverage.CoverageRatio != 1 {
		t.Fatalf("expected default coverage ratio of 1 when skipped, got %v", analysis.Coverage.CoverageRatio)
	}
	if len(analysis.DocStaleness.StaleReferences) != 0 {
		t.Fatal("expected doc staleness to be skipped")
	}
}
