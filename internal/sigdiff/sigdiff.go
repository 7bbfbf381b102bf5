// Package sigdiff structurally compares two function-like signature strings,
// bracket-aware over parameter splitting: <, (, [, { share a single nesting
// depth rather than per-bracket stacks.
package sigdiff

import (
	"fmt"
	"strings"
)

// Result is the outcome of comparing a base and head signature string.
type Result struct {
	Changed bool
	Details string
}

// Diff compares two optional, normalized-free signature strings and reports
// whether they differ, plus a human-readable explanation of what changed.
func Diff(base, head *string) Result {
	if base == nil && head == nil {
		return Result{Changed: false}
	}
	if base == nil {
		return Result{Changed: true, Details: "signature added"}
	}
	if head == nil {
		return Result{Changed: true, Details: "signature removed"}
	}

	nb := normalize(*base)
	nh := normalize(*head)
	if nb == nh {
		return Result{Changed: false}
	}

	baseParams, baseReturn, baseOK := parseSignature(nb)
	headParams, headReturn, headOK := parseSignature(nh)
	if !baseOK || !headOK {
		return Result{Changed: true, Details: "signature changed"}
	}

	var details []string

	if len(baseParams) != len(headParams) {
		details = append(details, fmt.Sprintf("parameter count changed from %d to %d", len(baseParams), len(headParams)))
	}

	shared := len(baseParams)
	if len(headParams) < shared {
		shared = len(headParams)
	}
	for i := 0; i < shared; i++ {
		if baseParams[i].Type != headParams[i].Type {
			details = append(details, fmt.Sprintf(
				"parameter '%s' type changed from '%s' to '%s'",
				baseParams[i].Name, baseParams[i].Type, headParams[i].Type,
			))
		}
	}

	switch {
	case baseReturn == nil && headReturn != nil:
		details = append(details, fmt.Sprintf("return type added: '%s'", *headReturn))
	case baseReturn != nil && headReturn == nil:
		details = append(details, fmt.Sprintf("return type removed (was '%s')", *baseReturn))
	case baseReturn != nil && headReturn != nil && *baseReturn != *headReturn:
		details = append(details, fmt.Sprintf("return type changed from '%s' to '%s'", *baseReturn, *headReturn))
	}

	if len(details) == 0 {
		return Result{Changed: true, Details: "signature changed"}
	}
	return Result{Changed: true, Details: strings.Join(details, "; ")}
}

// Param is one parsed parameter of a signature's parameter list.
type Param struct {
	Raw  string
	Name string
	Type string
}

// normalize collapses whitespace runs and trims a signature string.
func normalize(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// parseSignature splits a "(params):ReturnType" string into its parameter
// list and optional return type, using a depth counter over the outer
// parens located by matching bracket.
func parseSignature(s string) (params []Param, returnType *string, ok bool) {
	start := strings.Index(s, "(")
	if start < 0 {
		return nil, nil, false
	}
	end := matchOuterParen(s, start)
	if end < 0 {
		return nil, nil, false
	}

	paramList := s[start+1 : end]
	rest := strings.TrimSpace(s[end+1:])

	if strings.HasPrefix(rest, ":") {
		rt := strings.TrimSpace(rest[1:])
		if rt != "" {
			returnType = &rt
		}
	}

	for _, raw := range splitTopLevel(paramList) {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		params = append(params, parseParam(trimmed))
	}
	return params, returnType, true
}

// matchOuterParen returns the index of the ')' that closes the '(' at
// start, treating '<', '(', '[', '{' as openers sharing one depth counter.
func matchOuterParen(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(', '<', '[', '{':
			depth++
		case ')', '>', ']', '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits a parameter list on commas that sit at depth 0.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i, c := range s {
		switch c {
		case '(', '<', '[', '{':
			depth++
		case ')', '>', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + len(string(c))
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// parseParam extracts a parameter's name and declared type. A rest
// parameter prefix ("...") is stripped before searching for the depth-0
// colon that separates name from type; if no colon is found, the
// parameter's own raw text stands in as its type, supporting untyped
// positional params.
func parseParam(raw string) Param {
	body := raw
	isRest := strings.HasPrefix(body, "...")
	if isRest {
		body = body[3:]
	}

	colon := topLevelColon(body)
	if colon < 0 {
		return Param{Raw: raw, Name: raw, Type: raw}
	}

	name := strings.TrimSpace(body[:colon])
	name = strings.TrimSuffix(name, "?")
	if isRest {
		name = "..." + name
	}
	typ := strings.TrimSpace(body[colon+1:])
	if typ == "" {
		typ = name
	}
	return Param{Raw: raw, Name: name, Type: typ}
}

func topLevelColon(s string) int {
	depth := 0
	for i, c := range s {
		switch c {
		case '(', '<', '[', '{':
			depth++
		case ')', '>', ']', '}':
			depth--
		case ':':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
