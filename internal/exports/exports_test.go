package exports

import (
	"context"
	"testing"
)

func keys(fe FileExports) map[Key]Symbol {
	m := map[Key]Symbol{}
	for _, s := range fe.Symbols {
		m[s.Key()] = s
	}
	return m
}

func TestExtractNamedFunction(t *testing.T) {
	fe := Extract("export function foo(a: number): number { return a; }", "lib.ts")
	sym, ok := fe.Get(Key{Name: "foo"})
	if !ok {
		t.Fatal("expected foo to be extracted")
	}
	if sym.Kind != Function {
		t.Fatalf("expected function kind, got %s", sym.Kind)
	}
	if sym.Signature == nil || *sym.Signature != "(a: number): number" {
		t.Fatalf("unexpected signature: %v", sym.Signature)
	}
}

func TestExtractDefaultNamedFunction(t *testing.T) {
	fe := Extract("export default function bar(): void {}", "lib.ts")
	sym, ok := fe.Get(Key{Name: "bar", IsDefault: true})
	if !ok {
		t.Fatal("expected default bar")
	}
	if !sym.IsDefault {
		t.Fatal("expected IsDefault")
	}
}

func TestExtractDefaultAnonymousFunction(t *testing.T) {
	fe := Extract("export default function(): void {}", "lib.ts")
	if _, ok := fe.Get(Key{Name: "default", IsDefault: true}); !ok {
		t.Fatal("expected anonymous default export")
	}
}

func TestExtractAsyncGeneratorFunction(t *testing.T) {
	fe := Extract("export async function* gen() {}", "lib.ts")
	if _, ok := fe.Get(Key{Name: "gen"}); !ok {
		t.Fatal("expected gen to be extracted")
	}
}

func TestExtractClassVariants(t *testing.T) {
	fe := Extract(`
export class Foo {}
export abstract class Bar {}
export declare class Baz {}
export default class Qux {}
`, "lib.ts")
	m := keys(fe)
	if _, ok := m[Key{Name: "Foo"}]; !ok {
		t.Fatal("expected Foo")
	}
	if _, ok := m[Key{Name: "Bar"}]; !ok {
		t.Fatal("expected Bar")
	}
	if _, ok := m[Key{Name: "Qux", IsDefault: true}]; !ok {
		t.Fatal("expected default Qux")
	}
}

func TestExtractEnumsInterfacesTypes(t *testing.T) {
	fe := Extract(`
export const enum Direction { Up, Down }
export enum Color { Red, Blue }
export interface Shape { area(): number }
export type Id = string;
`, "lib.ts")
	m := keys(fe)
	if s, ok := m[Key{Name: "Direction"}]; !ok || s.Kind != Enum {
		t.Fatal("expected Direction enum")
	}
	if s, ok := m[Key{Name: "Shape"}]; !ok || s.Kind != Interface {
		t.Fatal("expected Shape interface")
	}
	if s, ok := m[Key{Name: "Id"}]; !ok || s.Kind != Type {
		t.Fatal("expected Id type alias")
	}
}

func TestExtractTypedVariable(t *testing.T) {
	fe := Extract(`export const MAX: number = 10;`, "lib.ts")
	sym, ok := fe.Get(Key{Name: "MAX"})
	if !ok {
		t.Fatal("expected MAX")
	}
	if sym.Kind != Const {
		t.Fatalf("expected const kind, got %s", sym.Kind)
	}
	if sym.Signature == nil || *sym.Signature != "number" {
		t.Fatalf("unexpected signature: %v", sym.Signature)
	}
}

func TestExtractDestructuredBindings(t *testing.T) {
	fe := Extract(`export const { a, b: renamed } = obj;`, "lib.ts")
	m := keys(fe)
	if _, ok := m[Key{Name: "a"}]; !ok {
		t.Fatal("expected a")
	}
	if _, ok := m[Key{Name: "renamed"}]; !ok {
		t.Fatal("expected renamed")
	}
}

func TestExtractNamedBlockWithRenameAndDefault(t *testing.T) {
	fe := Extract(`export { foo, bar as baz, qux as default };`, "lib.ts")
	m := keys(fe)
	if _, ok := m[Key{Name: "foo"}]; !ok {
		t.Fatal("expected foo")
	}
	if _, ok := m[Key{Name: "baz"}]; !ok {
		t.Fatal("expected baz (renamed)")
	}
	sym, ok := m[Key{Name: "qux", IsDefault: true}]
	if !ok {
		t.Fatal("expected default qux")
	}
	if sym.Name != "qux" {
		t.Fatalf("expected tracked name to remain qux, got %s", sym.Name)
	}
}

func TestExtractTypeOnlyNamedBlockNotMisclassifiedAsAlias(t *testing.T) {
	fe := Extract(`export type { Foo, Bar };`, "lib.ts")
	m := keys(fe)
	s, ok := m[Key{Name: "Foo"}]
	if !ok {
		t.Fatal("expected Foo")
	}
	if s.Kind != Type {
		t.Fatalf("expected type kind, got %s", s.Kind)
	}
}

func TestExtractDefaultExpression(t *testing.T) {
	fe := Extract(`export default myIdent;`, "lib.ts")
	if _, ok := fe.Get(Key{Name: "myIdent", IsDefault: true}); !ok {
		t.Fatal("expected default myIdent")
	}
}

func TestExtractDeduplicatesByIdentityFirstWins(t *testing.T) {
	fe := Extract(`
export function foo(): void {}
export { foo as foo };
`, "lib.ts")
	sym, _ := fe.Get(Key{Name: "foo"})
	if sym.Kind != Function {
		t.Fatalf("expected first pattern (function) to win, got %s", sym.Kind)
	}
}

func TestExtractStripsComments(t *testing.T) {
	fe := Extract(`
/* export function ghost(): void {} */
// export const ghost2 = 1;
export const real = 1;
`, "lib.ts")
	if _, ok := fe.Get(Key{Name: "ghost"}); ok {
		t.Fatal("block comment export must not be extracted")
	}
	if _, ok := fe.Get(Key{Name: "real"}); !ok {
		t.Fatal("expected real")
	}
}

func TestExtractStarAsNamespace(t *testing.T) {
	fe := Extract(`export * as ns from './other';`, "lib.ts")
	sym, ok := fe.Get(Key{Name: "ns"})
	if !ok {
		t.Fatal("expected ns namespace symbol")
	}
	if sym.Kind != Variable {
		t.Fatalf("expected variable kind, got %s", sym.Kind)
	}
}

func TestExtractStarWithoutResolverContributesNothing(t *testing.T) {
	fe := Extract(`export * from './other';`, "lib.ts")
	if len(fe.Symbols) != 0 {
		t.Fatalf("expected no symbols, got %+v", fe.Symbols)
	}
}

func TestExtractWithResolverPullsBarrel(t *testing.T) {
	resolver := func(ctx context.Context, from, spec string) (FileExports, error) {
		return FileExports{
			FilePath: spec,
			Symbols: []Symbol{
				{Name: "a", Kind: Function},
				{Name: "default", Kind: Function, IsDefault: true},
			},
		}, nil
	}
	fe, err := ExtractWithResolver(context.Background(), `export * from './other';`, "lib.ts", resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := fe.Get(Key{Name: "a"}); !ok {
		t.Fatal("expected barrel to pull non-default symbol a")
	}
	if _, ok := fe.Get(Key{Name: "default", IsDefault: true}); ok {
		t.Fatal("barrel resolution must not pull default exports")
	}
}

func TestNoDuplicateIdentityKeys(t *testing.T) {
	fe := Extract(`
export function foo(): void {}
export const bar = 1;
export class Baz {}
`, "lib.ts")
	seen := map[Key]bool{}
	for _, s := range fe.Symbols {
		if seen[s.Key()] {
			t.Fatalf("duplicate identity key: %+v", s.Key())
		}
		seen[s.Key()] = true
	}
}
