// Package testcoverage checks whether each changed source file has a
// corresponding test file that was also touched by the PR, probing a
// closed set of conventional candidate paths (sibling, __tests__ sibling,
// and top-level test/tests mirrors).
package testcoverage

import (
	"path"
	"strings"

	"github.com/ducdmdev/prpulse/internal/categorize"
	"github.com/ducdmdev/prpulse/internal/prdiff"
)

// Gap is one changed source file's test-coverage standing.
type Gap struct {
	SourceFile        string
	ExpectedTestFiles []string
	TestFileExists    bool
	TestFileChanged   bool
}

// Report summarizes coverage across every changed source file in the PR.
type Report struct {
	ChangedSourceFiles         int
	SourceFilesWithTestChanges int
	CoverageRatio              float64
	Gaps                       []Gap
}

// Exists probes whether a candidate test path exists, e.g. backed by
// os.Stat against the working tree or a fixture's file-existence oracle.
type Exists func(path string) bool

var candidateExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

// Check evaluates coverage for every source-category file in files,
// probing exists for each file's candidate test paths and cross-checking
// against which test files the PR itself changed.
func Check(files []prdiff.ChangedFile, exists Exists) Report {
	changedTests := make(map[string]bool)
	for _, f := range files {
		if f.Category == categorize.Test {
			changedTests[f.Path] = true
		}
	}

	var gaps []Gap
	changedSource := 0
	withTestChanges := 0

	for _, f := range files {
		if f.Category != categorize.Source {
			continue
		}
		changedSource++

		cands := candidates(f.Path)
		anyExists := false
		anyChanged := false
		for _, c := range cands {
			if !exists(c) {
				continue
			}
			anyExists = true
			if changedTests[c] {
				anyChanged = true
			}
		}
		if anyChanged {
			withTestChanges++
		}
		gaps = append(gaps, Gap{
			SourceFile:        f.Path,
			ExpectedTestFiles: cands,
			TestFileExists:    anyExists,
			TestFileChanged:   anyChanged,
		})
	}

	ratio := 1.0
	if changedSource > 0 {
		ratio = float64(withTestChanges) / float64(changedSource)
	}

	return Report{
		ChangedSourceFiles:         changedSource,
		SourceFilesWithTestChanges: withTestChanges,
		CoverageRatio:              ratio,
		Gaps:                       gaps,
	}
}

// candidates generates the closed set of conventional test paths for a
// source file: sibling .test/.spec files, a sibling __tests__ directory,
// and a top-level test/ or tests/ mirror with a leading src/ or lib/
// prefix stripped.
func candidates(sourcePath string) []string {
	dir := path.Dir(sourcePath)
	base := strings.TrimSuffix(path.Base(sourcePath), path.Ext(sourcePath))

	var out []string
	for _, ext := range candidateExtensions {
		out = append(out,
			path.Join(dir, base+".test"+ext),
			path.Join(dir, base+".spec"+ext),
			path.Join(dir, "__tests__", base+ext),
			path.Join(dir, "__tests__", base+".test"+ext),
			path.Join(dir, "__tests__", base+".spec"+ext),
		)
	}

	stripped := sourcePath
	for _, prefix := range []string{"src/", "lib/"} {
		if strings.HasPrefix(stripped, prefix) {
			stripped = strings.TrimPrefix(stripped, prefix)
			break
		}
	}
	strippedDir := path.Dir(stripped)
	strippedBase := strings.TrimSuffix(path.Base(stripped), path.Ext(stripped))

	for _, top := range []string{"test", "tests"} {
		for _, ext := range candidateExtensions {
			name := strippedBase + ext
			if strippedDir != "." {
				name = path.Join(strippedDir, name)
			}
			out = append(out, path.Join(top, name))
		}
	}

	return out
}
