package sigdiff

import "testing"

func strp(s string) *string { return &s }

func TestDiffBothAbsent(t *testing.T) {
	r := Diff(nil, nil)
	if r.Changed {
		t.Fatalf("expected unchanged, got %+v", r)
	}
}

func TestDiffAddedRemoved(t *testing.T) {
	sig := strp("(a: number): number")
	if r := Diff(nil, sig); !r.Changed || r.Details != "signature added" {
		t.Fatalf("expected signature added, got %+v", r)
	}
	if r := Diff(sig, nil); !r.Changed || r.Details != "signature removed" {
		t.Fatalf("expected signature removed, got %+v", r)
	}
}

func TestDiffIdenticalAfterNormalization(t *testing.T) {
	a := strp("(a: number,  b:  string): void")
	b := strp("(a: number, b: string): void")
	r := Diff(a, b)
	if r.Changed {
		t.Fatalf("expected unchanged, got %+v", r)
	}
}

func TestDiffParamCountChanged(t *testing.T) {
	a := strp("(a: number): number")
	b := strp("(a: number, b: number): number")
	r := Diff(a, b)
	if !r.Changed {
		t.Fatal("expected changed")
	}
	if r.Details != "parameter count changed from 1 to 2" {
		t.Fatalf("unexpected details: %q", r.Details)
	}
}

func TestDiffParamTypeChanged(t *testing.T) {
	a := strp("(x: number): number")
	b := strp("(x: string): number")
	r := Diff(a, b)
	if !r.Changed {
		t.Fatal("expected changed")
	}
	if r.Details != "parameter 'x' type changed from 'number' to 'string'" {
		t.Fatalf("unexpected details: %q", r.Details)
	}
}

func TestDiffReturnTypeChanged(t *testing.T) {
	a := strp("(): number")
	b := strp("(): string")
	r := Diff(a, b)
	if r.Details != "return type changed from 'number' to 'string'" {
		t.Fatalf("unexpected details: %q", r.Details)
	}
}

func TestDiffReturnTypeAddedRemoved(t *testing.T) {
	a := strp("(a: number)")
	b := strp("(a: number): number")
	r := Diff(a, b)
	if r.Details != "return type added: 'number'" {
		t.Fatalf("unexpected details: %q", r.Details)
	}
	r2 := Diff(b, a)
	if r2.Details != "return type removed (was 'number')" {
		t.Fatalf("unexpected details: %q", r2.Details)
	}
}

func TestDiffBracketAwareSplitting(t *testing.T) {
	a := strp("(a: Map<string, number>, b: string): void")
	b := strp("(a: Map<string, number>, c: string): void")
	r := Diff(a, b)
	if !r.Changed || r.Details != "signature changed" {
		t.Fatalf("expected only the generic fallback (parameter names are not compared structurally), got %+v", r)
	}
}

func TestDiffGenericFallback(t *testing.T) {
	a := strp("(a: number): number")
	b := strp("<T>(a: T): T")
	r := Diff(a, b)
	if !r.Changed {
		t.Fatal("expected changed")
	}
}

func TestDiffIsSymmetricOnChangedFlag(t *testing.T) {
	a := strp("(a: number): number")
	b := strp("(a: number, b: number): string")
	r1 := Diff(a, b)
	r2 := Diff(b, a)
	if r1.Changed != r2.Changed {
		t.Fatalf("expected changed symmetry, got %v vs %v", r1.Changed, r2.Changed)
	}
}

func TestDiffIdempotentOnSelf(t *testing.T) {
	sig := "(a: number, b: Array<string>): Promise<void>"
	r := Diff(&sig, &sig)
	if r.Changed {
		t.Fatalf("diff(s, s) must be unchanged, got %+v", r)
	}
}

func TestDiffUntypedPositionalParams(t *testing.T) {
	a := strp("(a, b): void")
	b := strp("(a, b, c): void")
	r := Diff(a, b)
	if r.Details != "parameter count changed from 2 to 3" {
		t.Fatalf("unexpected details: %q", r.Details)
	}
}

func TestDiffRestParameter(t *testing.T) {
	a := strp("(a: number, ...rest: number[]): void")
	b := strp("(a: number, ...rest: string[]): void")
	r := Diff(a, b)
	if r.Details != "parameter '...rest' type changed from 'number[]' to 'string[]'" {
		t.Fatalf("unexpected details: %q", r.Details)
	}
}
