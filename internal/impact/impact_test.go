package impact

import (
	"context"
	"testing"

	"github.com/ducdmdev/prpulse/internal/gateway"
	"github.com/ducdmdev/prpulse/internal/reversedeps"
)

type fakeGateway struct{ files map[string]string }

func (f *fakeGateway) ListChanged(ctx context.Context, base, head string) ([]gateway.RawChange, error) {
	return nil, nil
}
func (f *fakeGateway) ReadAt(ctx context.Context, ref, path string) ([]byte, error) {
	c, ok := f.files[path]
	if !ok {
		return nil, errNF{}
	}
	return []byte(c), nil
}
func (f *fakeGateway) DefaultBase(ctx context.Context) (string, error) { return "main", nil }
func (f *fakeGateway) EnumerateSourceFiles(ctx context.Context) ([]string, error) {
	var out []string
	for p := range f.files {
		out = append(out, p)
	}
	return out, nil
}

type errNF struct{}

func (errNF) Error() string { return "not found" }

func buildIdx(t *testing.T) *reversedeps.Index {
	t.Helper()
	gw := &fakeGateway{files: map[string]string{
		"src/c.ts": "export const c = 1;",
		"src/b.ts": "import { c } from './c';",
		"src/a.ts": "import { b } from './b';",
	}}
	idx := reversedeps.Get(t.Name())
	t.Cleanup(func() { reversedeps.Reset(t.Name()) })
	if err := idx.Build(context.Background(), gw, "HEAD"); err != nil {
		t.Fatalf("build: %v", err)
	}
	return idx
}

func TestBuildTwoLevels(t *testing.T) {
	idx := buildIdx(t)

	g1 := Build([]string{"src/c.ts"}, idx, 1)
	if len(g1.DirectlyChanged) != 1 || g1.DirectlyChanged[0] != "src/c.ts" {
		t.Fatalf("unexpected directly changed: %+v", g1.DirectlyChanged)
	}
	if len(g1.IndirectlyAffected) != 1 || g1.IndirectlyAffected[0] != "src/b.ts" {
		t.Fatalf("expected only src/b.ts at depth 1, got %+v", g1.IndirectlyAffected)
	}

	g2 := Build([]string{"src/c.ts"}, idx, 2)
	found := false
	for _, n := range g2.IndirectlyAffected {
		if n == "src/a.ts" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected src/a.ts reachable at depth 2, got %+v", g2.IndirectlyAffected)
	}
}

func TestDirectAndIndirectAreDisjoint(t *testing.T) {
	idx := buildIdx(t)
	g := Build([]string{"src/c.ts", "src/b.ts"}, idx, 3)
	directSet := map[string]bool{}
	for _, d := range g.DirectlyChanged {
		directSet[d] = true
	}
	for _, i := range g.IndirectlyAffected {
		if directSet[i] {
			t.Fatalf("%s appears in both directly changed and indirectly affected", i)
		}
	}
}

func TestEveryEdgeTargetIsVisited(t *testing.T) {
	idx := buildIdx(t)
	g := Build([]string{"src/c.ts"}, idx, 3)
	visited := map[string]bool{}
	for _, d := range g.DirectlyChanged {
		visited[d] = true
	}
	for _, i := range g.IndirectlyAffected {
		visited[i] = true
	}
	for _, e := range g.Edges {
		if !visited[e.To] {
			t.Fatalf("edge target %s was never visited", e.To)
		}
	}
}

func TestBuildRespectsMaxDepthZeroDefaultsToThree(t *testing.T) {
	idx := buildIdx(t)
	g := Build([]string{"src/c.ts"}, idx, 0)
	if len(g.IndirectlyAffected) != 2 {
		t.Fatalf("expected default depth 3 to reach both b and a, got %+v", g.IndirectlyAffected)
	}
}
