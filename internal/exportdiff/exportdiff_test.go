package exportdiff

import (
	"testing"

	"github.com/ducdmdev/prpulse/internal/exports"
)

func strp(s string) *string { return &s }

func TestCompareRemovedAddedModified(t *testing.T) {
	base := exports.FileExports{
		FilePath: "lib.ts",
		Symbols: []exports.Symbol{
			{Name: "foo", Kind: exports.Function, Signature: strp("(a: number): number")},
			{Name: "bar", Kind: exports.Function},
			{Name: "Shape", Kind: exports.Interface},
		},
	}
	head := exports.FileExports{
		FilePath: "lib.ts",
		Symbols: []exports.Symbol{
			{Name: "foo", Kind: exports.Function, Signature: strp("(a: number, b: number): number")},
			{Name: "baz", Kind: exports.Function},
			{Name: "Shape", Kind: exports.Class},
		},
	}

	d := Compare(base, head)

	if len(d.Removed) != 1 || d.Removed[0].Name != "bar" {
		t.Fatalf("expected bar removed, got %+v", d.Removed)
	}
	if len(d.Added) != 1 || d.Added[0].Name != "baz" {
		t.Fatalf("expected baz added, got %+v", d.Added)
	}
	if len(d.Modified) != 2 {
		t.Fatalf("expected 2 modified (foo signature, Shape kind), got %+v", d.Modified)
	}
}

func TestCompareIdenticalYieldsNoDiff(t *testing.T) {
	fe := exports.FileExports{
		FilePath: "lib.ts",
		Symbols: []exports.Symbol{
			{Name: "foo", Kind: exports.Function, Signature: strp("(): void")},
		},
	}
	d := Compare(fe, fe)
	if len(d.Removed) != 0 || len(d.Added) != 0 || len(d.Modified) != 0 {
		t.Fatalf("expected no diff, got %+v", d)
	}
}

func TestCompareDistinguishesDefaultAndNamed(t *testing.T) {
	base := exports.FileExports{Symbols: []exports.Symbol{{Name: "foo", IsDefault: true, Kind: exports.Function}}}
	head := exports.FileExports{Symbols: []exports.Symbol{{Name: "foo", IsDefault: false, Kind: exports.Function}}}
	d := Compare(base, head)
	if len(d.Removed) != 1 || len(d.Added) != 1 {
		t.Fatalf("default and named 'foo' are distinct identities, got %+v", d)
	}
}
