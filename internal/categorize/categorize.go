// Package categorize maps a file path to its change category and language
// tag, using the fixed precedence order test > doc > config > source > other.
package categorize

import (
	"path"
	"strings"
)

// Category is a closed enumeration of file change categories.
type Category string

const (
	Test   Category = "test"
	Doc    Category = "doc"
	Config Category = "config"
	Source Category = "source"
	Other  Category = "other"
)

var sourceExtensions = map[string]string{
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".py":   "python",
	".go":   "go",
	".rb":   "ruby",
	".java": "java",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".hpp":  "cpp",
	".cc":   "cpp",
}

var docExtensions = map[string]bool{
	".md":   true,
	".mdx":  true,
	".txt":  true,
	".rst":  true,
}

var configBasenames = map[string]bool{
	"package.json":      true,
	"package-lock.json":  true,
	"yarn.lock":          true,
	"pnpm-lock.yaml":     true,
	"tsconfig.json":      true,
	"Dockerfile":         true,
	"Makefile":           true,
	"go.mod":             true,
	"go.sum":             true,
}

var configPrefixes = []string{
	".eslintrc",
	".prettierrc",
	"docker-compose.",
	".env",
}

// Categorize returns the change category for a repo-relative path.
func Categorize(p string) Category {
	if isTest(p) {
		return Test
	}
	if isDoc(p) {
		return Doc
	}
	if isConfig(p) {
		return Config
	}
	if _, ok := sourceExtensions[strings.ToLower(path.Ext(p))]; ok {
		return Source
	}
	return Other
}

func isTest(p string) bool {
	segments := strings.Split(normalize(p), "/")
	for _, seg := range segments {
		if seg == "__tests__" || seg == "test" || seg == "tests" {
			return true
		}
	}
	base := path.Base(p)
	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") {
		return true
	}
	return strings.HasPrefix(base, "test")
}

func isDoc(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	if docExtensions[ext] {
		return true
	}
	segments := strings.Split(normalize(p), "/")
	for _, seg := range segments {
		if seg == "docs" || seg == "doc" {
			return true
		}
	}
	return false
}

func isConfig(p string) bool {
	segments := strings.Split(normalize(p), "/")
	for _, seg := range segments {
		if seg == ".github" {
			return true
		}
	}
	base := path.Base(p)
	if configBasenames[base] {
		return true
	}
	for _, prefix := range configPrefixes {
		if strings.HasPrefix(base, prefix) {
			return true
		}
	}
	if strings.Contains(base, ".config.") {
		return true
	}
	return false
}

// Language returns the language tag for a repo-relative path, "unknown" when
// not recognized.
func Language(p string) string {
	base := path.Base(p)
	switch base {
	case "Dockerfile":
		return "dockerfile"
	case "Makefile":
		return "makefile"
	}
	if lang, ok := sourceExtensions[strings.ToLower(path.Ext(p))]; ok {
		return lang
	}
	return "unknown"
}

// IsAnalyzableSource reports whether a path has an extension the export
// extractor and signature differ understand.
func IsAnalyzableSource(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".ts", ".tsx", ".js", ".jsx":
		return true
	default:
		return false
	}
}

func normalize(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
