// Package docstale scans documentation files at head for references to
// source paths and exported symbols that no longer exist. Matchers are a
// fixed pattern set walked line by line against literal deletions, renames,
// and removed exports rather than a resolved symbol index.
package docstale

import (
	"context"
	"path"
	"strconv"
	"strings"

	"github.com/ducdmdev/prpulse/internal/categorize"
	"github.com/ducdmdev/prpulse/internal/exports"
	"github.com/ducdmdev/prpulse/internal/gateway"
	"github.com/ducdmdev/prpulse/internal/prdiff"
)

// StaleReference is one doc-line reference to something that no longer
// exists at head.
type StaleReference struct {
	DocFile   string
	Line      int
	Reference string
	Reason    string
}

// Report is the outcome of a doc-staleness scan.
type Report struct {
	StaleReferences []StaleReference
	CheckedFiles    int
}

// genericNames require path-like context to match; matching them on bare
// word boundaries alone would flag ordinary English prose.
var genericNames = map[string]bool{
	"types": true, "utils": true, "index": true, "helpers": true,
	"config": true, "common": true, "lib": true,
}

// ReadFile reads a doc file's content at head, trying the filesystem first
// (callers pass a closure over the repo root) and falling back to the
// gateway. The bool return is false when the file could not be read at all.
type ReadFile func(ctx context.Context, path string) ([]byte, bool)

// Check scans every tracked doc file at head for stale references arising
// from files changed in this PR: deleted files, renamed files, and
// exported symbols removed from modified files. When there is nothing to
// search for, doc contents are never read, though CheckedFiles still
// reports the enumerated count.
func Check(ctx context.Context, gw gateway.Gateway, base, head string, files []prdiff.ChangedFile, read ReadFile) (Report, error) {
	targets, err := buildTargets(ctx, gw, base, files, read)
	if err != nil {
		return Report{}, err
	}

	allDocs, err := enumerateDocs(ctx, gw)
	if err != nil {
		return Report{}, err
	}

	if len(targets.deletedPaths) == 0 && len(targets.renames) == 0 && len(targets.removedSymbols) == 0 {
		return Report{CheckedFiles: len(allDocs)}, nil
	}

	var refs []StaleReference
	for _, doc := range allDocs {
		content, ok := read(ctx, doc)
		if !ok {
			continue
		}
		refs = append(refs, scanDoc(doc, string(content), targets)...)
	}

	return Report{StaleReferences: refs, CheckedFiles: len(allDocs)}, nil
}

type symbolOrigin struct {
	name string
	file string
}

type targets struct {
	deletedPaths   []string
	renames        []renameTarget
	removedSymbols []symbolOrigin
}

type renameTarget struct {
	oldPath string
	newPath string
}

func buildTargets(ctx context.Context, gw gateway.Gateway, base string, files []prdiff.ChangedFile, read ReadFile) (targets, error) {
	var t targets

	for _, f := range files {
		if f.Category != categorize.Source {
			continue
		}
		switch f.Status {
		case prdiff.Deleted:
			t.deletedPaths = append(t.deletedPaths, f.Path)
			if !categorize.IsAnalyzableSource(f.Path) {
				continue
			}
			if content, err := gw.ReadAt(ctx, base, f.Path); err == nil {
				for _, s := range exports.Extract(string(content), f.Path).Symbols {
					t.removedSymbols = append(t.removedSymbols, symbolOrigin{name: s.Name, file: f.Path})
				}
			}
		case prdiff.Renamed:
			t.renames = append(t.renames, renameTarget{oldPath: f.OldPath, newPath: f.Path})
		case prdiff.Modified:
			if !categorize.IsAnalyzableSource(f.Path) {
				continue
			}
			baseContent, baseErr := gw.ReadAt(ctx, base, f.BasePath())
			headContent, headOK := read(ctx, f.Path)
			if baseErr != nil || !headOK {
				continue
			}
			baseNames := map[string]bool{}
			for _, s := range exports.Extract(string(baseContent), f.Path).Symbols {
				baseNames[s.Name] = true
			}
			headNames := map[string]bool{}
			for _, s := range exports.Extract(string(headContent), f.Path).Symbols {
				headNames[s.Name] = true
			}
			for name := range baseNames {
				if !headNames[name] {
					t.removedSymbols = append(t.removedSymbols, symbolOrigin{name: name, file: f.Path})
				}
			}
		}
	}

	return t, nil
}

func enumerateDocs(ctx context.Context, gw gateway.Gateway) ([]string, error) {
	all, err := gw.EnumerateSourceFiles(ctx)
	if err != nil {
		return nil, err
	}
	var docs []string
	for _, p := range all {
		if categorize.Categorize(p) == categorize.Doc {
			docs = append(docs, p)
		}
	}
	return docs, nil
}

type span struct{ start, end int }

func scanDoc(docFile, content string, t targets) []StaleReference {
	var refs []StaleReference
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		lineNum := i + 1
		var fileSpans []span

		for _, p := range t.deletedPaths {
			for _, sp := range literalSpans(line, p) {
				fileSpans = append(fileSpans, sp)
				refs = append(refs, StaleReference{DocFile: docFile, Line: lineNum, Reference: p, Reason: "referenced file was deleted"})
			}
		}
		for _, r := range t.renames {
			for _, sp := range literalSpans(line, r.oldPath) {
				fileSpans = append(fileSpans, sp)
				refs = append(refs, StaleReference{
					DocFile: docFile, Line: lineNum, Reference: r.oldPath,
					Reason: "renamed to " + r.newPath,
				})
			}
		}

		seenSymbolRef := map[string]bool{}
		for _, origin := range t.removedSymbols {
			reason := "referenced symbol was removed from " + origin.file
			var spans []span
			if genericNames[strings.ToLower(origin.name)] {
				spans = pathContextSpans(line, origin.name)
			} else {
				spans = wordBoundarySpans(line, origin.name)
			}
			for _, sp := range spans {
				if overlapsAny(sp, fileSpans) {
					continue
				}
				key := origin.name + "\x00" + reason
				if seenSymbolRef[key] {
					continue
				}
				seenSymbolRef[key] = true
				refs = append(refs, StaleReference{DocFile: docFile, Line: lineNum, Reference: origin.name, Reason: reason})
			}
		}

		for _, p := range t.deletedPaths {
			stem := filenameStem(p)
			if stem == "" {
				continue
			}
			reason := "referenced symbol was removed from " + p
			key := stem + "\x00" + reason
			if seenSymbolRef[key] {
				continue
			}
			for _, sp := range pathContextSpans(line, stem) {
				if overlapsAny(sp, fileSpans) {
					continue
				}
				seenSymbolRef[key] = true
				refs = append(refs, StaleReference{DocFile: docFile, Line: lineNum, Reference: stem, Reason: reason})
				break
			}
		}
	}

	return refs
}

func filenameStem(p string) string {
	base := path.Base(p)
	if idx := strings.Index(base, "."); idx >= 0 {
		base = base[:idx]
	}
	return base
}

func literalSpans(line, needle string) []span {
	if needle == "" {
		return nil
	}
	var out []span
	start := 0
	for {
		idx := strings.Index(line[start:], needle)
		if idx < 0 {
			break
		}
		abs := start + idx
		out = append(out, span{start: abs, end: abs + len(needle)})
		start = abs + len(needle)
	}
	return out
}

func wordBoundarySpans(line, name string) []span {
	var out []span
	for _, sp := range literalSpans(line, name) {
		if isWordBoundary(line, sp.start, sp.end) {
			out = append(out, sp)
		}
	}
	return out
}

func pathContextSpans(line, name string) []span {
	var out []span
	for _, sp := range literalSpans(line, name) {
		if isPathContext(line, sp.start, sp.end) {
			out = append(out, sp)
		}
	}
	return out
}

func isWordBoundary(line string, start, end int) bool {
	before := byte(0)
	if start > 0 {
		before = line[start-1]
	}
	after := byte(0)
	if end < len(line) {
		after = line[end]
	}
	return !isWordChar(before) && !isWordChar(after)
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

var pathContextChars = map[byte]bool{'/': true, '.': true, '`': true}

func isPathContext(line string, start, end int) bool {
	before := byte(0)
	if start > 0 {
		before = line[start-1]
	}
	after := byte(0)
	if end < len(line) {
		after = line[end]
	}
	return pathContextChars[before] || pathContextChars[after]
}

func overlapsAny(s span, spans []span) bool {
	for _, o := range spans {
		if s.start < o.end && o.start < s.end {
			return true
		}
	}
	return false
}

// LineString renders a 1-indexed line number for display, exported for
// report renderers that want to avoid reformatting ints themselves.
func LineString(n int) string { return strconv.Itoa(n) }
