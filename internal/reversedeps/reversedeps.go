// Package reversedeps builds and serves the process-cached
// "module -> importers" map described in the data model's
// ReverseDependencyMap. Construction scans every tracked source file once;
// lookups thereafter are synchronous map reads against a published,
// effectively-immutable snapshot.
//
// The build lifecycle (absent -> building -> published -> reset -> absent)
// is modeled as explicit state rather than a bare sync.Once, because reset()
// needs to re-arm a builder that sync.Once cannot.
package reversedeps

import (
	"context"
	"path"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ducdmdev/prpulse/internal/categorize"
	"github.com/ducdmdev/prpulse/internal/gateway"
)

type buildState int

const (
	stateAbsent buildState = iota
	stateBuilding
	statePublished
)

// Index is a process-scoped, lazily-built reverse-dependency map for one
// repository root.
type Index struct {
	mu   sync.Mutex
	cond *sync.Cond
	st   buildState
	data map[string][]string
}

func newIndex() *Index {
	idx := &Index{st: stateAbsent}
	idx.cond = sync.NewCond(&idx.mu)
	return idx
}

var (
	registryMu sync.Mutex
	registry   = map[string]*Index{}
)

// Get returns the process-wide Index for repoRoot, creating it (in the
// absent state) on first use.
func Get(repoRoot string) *Index {
	registryMu.Lock()
	defer registryMu.Unlock()
	idx, ok := registry[repoRoot]
	if !ok {
		idx = newIndex()
		registry[repoRoot] = idx
	}
	return idx
}

// Reset invalidates the cached index for repoRoot, returning it to absent.
func Reset(repoRoot string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, repoRoot)
}

// Build constructs the index by scanning every tracked source file at head,
// unless it is already published, in which case it is a no-op. Concurrent
// callers block on the same single build rather than triggering duplicate
// scans. A cancelled build leaves the index absent.
func (idx *Index) Build(ctx context.Context, gw gateway.Gateway, head string) error {
	idx.mu.Lock()
	for idx.st == stateBuilding {
		idx.cond.Wait()
	}
	if idx.st == statePublished {
		idx.mu.Unlock()
		return nil
	}
	idx.st = stateBuilding
	idx.mu.Unlock()

	data, err := buildMap(ctx, gw, head)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err != nil || ctx.Err() != nil {
		idx.st = stateAbsent
		idx.cond.Broadcast()
		if err != nil {
			return err
		}
		return ctx.Err()
	}
	idx.data = data
	idx.st = statePublished
	idx.cond.Broadcast()
	return nil
}

// Importers returns the ordered, unique list of files that import filePath,
// looked up by its extension-stripped canonical key. Returns an empty list
// if the index holds no entry, without distinguishing "absent" from "empty".
// Callers needing that distinction should check Built first.
func (idx *Index) Importers(filePath string) []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	list := idx.data[NormalizeKey(filePath)]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Built reports whether the index currently holds a published snapshot.
func (idx *Index) Built() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.st == statePublished
}

var sourceExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// NormalizeKey strips a recognized source extension and canonicalizes
// separators, producing the key both construction and lookup use.
func NormalizeKey(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}

var (
	reStaticImport = regexp.MustCompile(`(?:import|export)\s+(?:[\w*\s{},]*\s+from\s+)?['"]([^'"]+)['"]`)
	reDynamicImport = regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`)
	reRequire       = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
)

const scanConcurrency = 32

func buildMap(ctx context.Context, gw gateway.Gateway, head string) (map[string][]string, error) {
	files, err := gw.EnumerateSourceFiles(ctx)
	if err != nil {
		return nil, err
	}

	type fileSpecs struct {
		path  string
		specs []string
	}
	results := make([]fileSpecs, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for i, f := range files {
		i, f := i, f
		if !categorize.IsAnalyzableSource(f) {
			continue
		}
		g.Go(func() error {
			content, err := gw.ReadAt(gctx, head, f)
			if err != nil {
				// A single unreadable file must not abort the scan.
				return nil
			}
			results[i] = fileSpecs{path: f, specs: relativeSpecifiers(string(content))}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := map[string][]string{}
	seen := map[string]map[string]bool{}
	for _, r := range results {
		if r.path == "" {
			continue
		}
		dir := path.Dir(r.path)
		for _, spec := range r.specs {
			key := resolveSpecifier(dir, spec)
			if seen[key] == nil {
				seen[key] = map[string]bool{}
			}
			if seen[key][r.path] {
				continue
			}
			seen[key][r.path] = true
			data[key] = append(data[key], r.path)
		}
	}
	return data, nil
}

func relativeSpecifiers(content string) []string {
	var out []string
	for _, re := range []*regexp.Regexp{reStaticImport, reDynamicImport, reRequire} {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			spec := m[1]
			if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
				out = append(out, spec)
			}
		}
	}
	return out
}

func resolveSpecifier(importerDir, specifier string) string {
	joined := path.Clean(path.Join(importerDir, specifier))
	return NormalizeKey(joined)
}
