// Package exportdiff computes a three-way diff (added / removed / modified)
// between two FileExports snapshots, keyed by identity as described in
// exports.Key.
package exportdiff

import "github.com/ducdmdev/prpulse/internal/exports"

// ModifiedPair is one symbol whose kind or signature changed between base
// and head while its identity key stayed the same.
type ModifiedPair struct {
	Base exports.Symbol
	Head exports.Symbol
}

// Diff is the result of comparing a file's exports at two refs.
type Diff struct {
	Removed  []exports.Symbol
	Added    []exports.Symbol
	Modified []ModifiedPair
}

// Compare diffs base against head by identity key: removed = base - head,
// added = head - base, modified = symbols present in both whose kind or
// signature differs.
func Compare(base, head exports.FileExports) Diff {
	baseByKey := make(map[exports.Key]exports.Symbol, len(base.Symbols))
	for _, s := range base.Symbols {
		baseByKey[s.Key()] = s
	}
	headByKey := make(map[exports.Key]exports.Symbol, len(head.Symbols))
	for _, s := range head.Symbols {
		headByKey[s.Key()] = s
	}

	var diff Diff
	for _, b := range base.Symbols {
		h, ok := headByKey[b.Key()]
		if !ok {
			diff.Removed = append(diff.Removed, b)
			continue
		}
		if b.Kind != h.Kind || !sameSignature(b.Signature, h.Signature) {
			diff.Modified = append(diff.Modified, ModifiedPair{Base: b, Head: h})
		}
	}
	for _, h := range head.Symbols {
		if _, ok := baseByKey[h.Key()]; !ok {
			diff.Added = append(diff.Added, h)
		}
	}
	return diff
}

func sameSignature(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
