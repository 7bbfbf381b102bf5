// Package exports lexes a single source file's exported public surface. It
// is deliberately regex-driven rather than a full parser: the ordered
// pattern battery below is a fixed var block walked in order, and that
// order doubles as precedence, later patterns never overwrite an
// already-recorded identity key.
package exports

import (
	"context"
	"regexp"
	"strings"
)

// Kind is the closed set of exportable symbol kinds.
type Kind string

const (
	Function  Kind = "function"
	Class     Kind = "class"
	Variable  Kind = "variable"
	Const     Kind = "const"
	Type      Kind = "type"
	Interface Kind = "interface"
	Enum      Kind = "enum"
)

// Key is the identity a symbol is matched by across versions.
type Key struct {
	IsDefault bool
	Name      string
}

// Symbol is one exported identifier as seen by consumers.
type Symbol struct {
	Name      string
	Kind      Kind
	Signature *string
	IsDefault bool
}

// Key returns this symbol's cross-version identity.
func (s Symbol) Key() Key { return Key{IsDefault: s.IsDefault, Name: s.Name} }

// FileExports is the deduplicated export surface of one file.
type FileExports struct {
	FilePath string
	Symbols  []Symbol
}

// Get returns the symbol for key, if present.
func (f FileExports) Get(key Key) (Symbol, bool) {
	for _, s := range f.Symbols {
		if s.Key() == key {
			return s, true
		}
	}
	return Symbol{}, false
}

// Resolver resolves a module specifier, relative to an importing file, to
// the FileExports of the target module. Supplied by the caller so the
// extractor's barrel-resolution path stays decoupled from any particular
// repo-access strategy.
type Resolver func(ctx context.Context, fromFile, specifier string) (FileExports, error)

const maxBarrelDepth = 10

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`//[^\n]*`)

	reDefaultNamedFunc = regexp.MustCompile(`export\s+default\s+(async\s+)?function(\*)?\s+(\w+)\s*\(`)
	reDefaultAnonFunc  = regexp.MustCompile(`export\s+default\s+(async\s+)?function(\*)?\s*\(`)
	reDefaultExpr      = regexp.MustCompile(`export\s+default\s+([A-Za-z_$][\w$]*)\s*;`)
	reNamedFunc        = regexp.MustCompile(`export\s+(async\s+)?function(\*)?\s+(\w+)\s*\(`)
	reClass            = regexp.MustCompile(`export\s+(default\s+)?(abstract\s+)?(declare\s+)?class\s+(\w+)`)
	reConstEnum        = regexp.MustCompile(`export\s+const\s+enum\s+(\w+)`)
	reEnum             = regexp.MustCompile(`export\s+enum\s+(\w+)`)
	reInterface        = regexp.MustCompile(`export\s+interface\s+(\w+)`)
	reTypeAlias        = regexp.MustCompile(`export\s+type\s+(\w+)\s*=`)
	reVar              = regexp.MustCompile(`export\s+(const|let|var)\s+(\w+)\s*(:\s*([^=;\n]+))?\s*(=|;|$)`)
	reDestructObj      = regexp.MustCompile(`export\s+(?:const|let|var)\s+\{([^}]*)\}\s*=`)
	reDestructArr      = regexp.MustCompile(`export\s+(?:const|let|var)\s+\[([^\]]*)\]\s*=`)
	reNamedBlock       = regexp.MustCompile(`export\s+(type\s+)?\{([^}]*)\}\s*(?:from\s+['"]([^'"]+)['"])?\s*;?`)
	reExportStarAs     = regexp.MustCompile(`export\s+\*\s+as\s+(\w+)\s+from\s+['"]([^'"]+)['"]`)
	reExportStar       = regexp.MustCompile(`export\s+\*\s+from\s+['"]([^'"]+)['"]`)
)

// Extract parses one file's text and returns its deduplicated export
// surface. It does not resolve barrels; use ExtractWithResolver for that.
func Extract(content, filePath string) FileExports {
	fe, _ := extract(context.Background(), content, filePath, nil, nil, 0)
	return fe
}

// ExtractWithResolver parses one file's text and, for each "export * from"
// specifier, adds the non-default symbols of the FileExports that resolve
// returns for it. The target's symbols are taken as resolve returns them:
// the extractor does not itself descend into the target's own "export *
// from" lines, so the maxBarrelDepth check never trips here. A target whose
// FilePath is filePath itself or was already pulled is skipped.
func ExtractWithResolver(ctx context.Context, content, filePath string, resolve Resolver) (FileExports, error) {
	return extract(ctx, content, filePath, resolve, map[string]bool{filePath: true}, 0)
}

func extract(ctx context.Context, content, filePath string, resolve Resolver, visited map[string]bool, depth int) (FileExports, error) {
	stripped := stripComments(content)

	seen := map[Key]bool{}
	var symbols []Symbol
	add := func(s Symbol) {
		k := s.Key()
		if seen[k] {
			return
		}
		seen[k] = true
		symbols = append(symbols, s)
	}

	// 1. Default function (named and anonymous), including async/generator.
	for _, m := range reDefaultNamedFunc.FindAllStringSubmatchIndex(stripped, -1) {
		name := stripped[m[6]:m[7]]
		sig := functionSignatureAt(stripped, m[1]-1)
		add(Symbol{Name: name, Kind: Function, Signature: sig, IsDefault: true})
	}
	for range reDefaultAnonFunc.FindAllStringIndex(stripped, -1) {
		add(Symbol{Name: "default", Kind: Function, IsDefault: true})
	}

	// Named function.
	for _, m := range reNamedFunc.FindAllStringSubmatchIndex(stripped, -1) {
		name := stripped[m[6]:m[7]]
		sig := functionSignatureAt(stripped, m[1]-1)
		add(Symbol{Name: name, Kind: Function, Signature: sig})
	}

	// Class (possibly abstract, declare, default).
	for _, m := range reClass.FindAllStringSubmatch(stripped, -1) {
		isDefault := m[1] != ""
		add(Symbol{Name: m[4], Kind: Class, IsDefault: isDefault})
	}

	// const enum / enum / interface / type alias.
	for _, m := range reConstEnum.FindAllStringSubmatch(stripped, -1) {
		add(Symbol{Name: m[1], Kind: Enum})
	}
	for _, m := range reEnum.FindAllStringSubmatch(stripped, -1) {
		add(Symbol{Name: m[1], Kind: Enum})
	}
	for _, m := range reInterface.FindAllStringSubmatch(stripped, -1) {
		add(Symbol{Name: m[1], Kind: Interface})
	}
	for _, m := range reTypeAlias.FindAllStringSubmatch(stripped, -1) {
		add(Symbol{Name: m[1], Kind: Type})
	}

	// Variable (const/let/var) with optional type annotation.
	for _, m := range reVar.FindAllStringSubmatch(stripped, -1) {
		kind := Variable
		if m[1] == "const" {
			kind = Const
		}
		var sig *string
		if t := strings.TrimSpace(m[4]); t != "" {
			sig = normalizedPtr(t)
		}
		add(Symbol{Name: m[2], Kind: kind, Signature: sig})
	}

	// Destructured bindings (object and array).
	for _, m := range reDestructObj.FindAllStringSubmatch(stripped, -1) {
		for _, b := range parseBindingList(m[1]) {
			add(Symbol{Name: b.name, Kind: Variable, IsDefault: b.isDefault})
		}
	}
	for _, m := range reDestructArr.FindAllStringSubmatch(stripped, -1) {
		for _, b := range parseBindingList(m[1]) {
			add(Symbol{Name: b.name, Kind: Variable, IsDefault: b.isDefault})
		}
	}

	// Named export blocks, including `export type { ... }`.
	for _, m := range reNamedBlock.FindAllStringSubmatch(stripped, -1) {
		isTypeBlock := m[1] != ""
		from := m[3]
		for _, b := range parseBindingList(m[2]) {
			kind := Variable
			if isTypeBlock {
				kind = Type
			}
			add(Symbol{Name: b.name, Kind: kind, IsDefault: b.isDefault})
		}
		_ = from // re-export-from blocks are handled identically to local blocks: names pass through.
	}

	// Default expression.
	for _, m := range reDefaultExpr.FindAllStringSubmatch(stripped, -1) {
		add(Symbol{Name: m[1], Kind: Variable, IsDefault: true})
	}

	// export * as ns from 'module'.
	for _, m := range reExportStarAs.FindAllStringSubmatch(stripped, -1) {
		add(Symbol{Name: m[1], Kind: Variable})
	}

	// export * from 'module': contributes nothing without a resolver; with
	// one, pulls every non-default symbol of the resolved target.
	if resolve != nil {
		for _, m := range reExportStar.FindAllStringSubmatch(stripped, -1) {
			specifier := m[1]
			if depth >= maxBarrelDepth {
				continue
			}
			target, err := resolve(ctx, filePath, specifier)
			if err != nil {
				continue
			}
			if visited[target.FilePath] {
				continue
			}
			visited[target.FilePath] = true
			for _, s := range target.Symbols {
				if s.IsDefault {
					continue
				}
				add(s)
			}
		}
	}

	return FileExports{FilePath: filePath, Symbols: symbols}, nil
}

func stripComments(content string) string {
	content = blockComment.ReplaceAllStringFunc(content, blankLines)
	content = lineComment.ReplaceAllString(content, "")
	return content
}

// blankLines replaces a matched block comment with an equal number of
// newlines so the stripped text keeps the original line count.
func blankLines(match string) string {
	return strings.Repeat("\n", strings.Count(match, "\n"))
}

// functionSignatureAt scans forward from the index of the function's "("
// and returns the normalized "(params):Return" slice, or nil if the
// parameter list never closes.
func functionSignatureAt(s string, parenIdx int) *string {
	if parenIdx < 0 || parenIdx >= len(s) || s[parenIdx] != '(' {
		return nil
	}
	depth := 0
	end := -1
	for i := parenIdx; i < len(s); i++ {
		switch s[i] {
		case '(', '<', '[', '{':
			depth++
		case ')', '>', ']', '}':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return nil
	}
	rest := s[end+1:]
	returnEnd := strings.IndexAny(rest, "{;\n")
	if returnEnd < 0 {
		returnEnd = len(rest)
	}
	sig := s[parenIdx:end+1] + rest[:returnEnd]
	return normalizedPtr(sig)
}

func normalizedPtr(s string) *string {
	n := strings.Join(strings.Fields(s), " ")
	n = strings.TrimSuffix(n, ":")
	n = strings.TrimSpace(n)
	return &n
}

type binding struct {
	name      string
	isDefault bool
}

// parseBindingList parses a comma-separated identifier list, handling
// "original as renamed" and "original as default" rewrites. The exported
// name (what consumers see) is what is returned; "as default" marks
// IsDefault while the tracked name remains the original identifier.
func parseBindingList(raw string) []binding {
	var out []binding
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Fields(strings.ReplaceAll(part, ":", " : "))
		// Object pattern: "original: renamed" or "original" or "...rest".
		// Named block: "original as renamed".
		if idx := indexOf(fields, "as"); idx >= 0 && idx+1 < len(fields) {
			exported := strings.TrimSuffix(fields[idx+1], ",")
			if exported == "default" {
				out = append(out, binding{name: fields[0], isDefault: true})
				continue
			}
			out = append(out, binding{name: exported})
			continue
		}
		if idx := indexOf(fields, ":"); idx >= 0 && idx+1 < len(fields) {
			out = append(out, binding{name: fields[idx+1]})
			continue
		}
		name := strings.TrimPrefix(fields[0], "...")
		out = append(out, binding{name: name})
	}
	return out
}

func indexOf(fields []string, target string) int {
	for i, f := range fields {
		if f == target {
			return i
		}
	}
	return -1
}
