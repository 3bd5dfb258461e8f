package kinds

import "testing"

func TestStringLenCountsCodepoints(t *testing.T) {
	s := NewString("héllo")
	if s.Len() != 5 {
		t.Errorf("Len = %d, want 5 codepoints", s.Len())
	}
}

func TestStringAt(t *testing.T) {
	s := NewString("héllo")
	tests := []struct {
		idx  int
		want rune
		ok   bool
	}{
		{0, 'h', true},
		{1, 'é', true},
		{-1, 'o', true},
		{5, 0, false},
		{-6, 0, false},
	}
	for _, tt := range tests {
		r, ok := s.At(tt.idx)
		if ok != tt.ok || (ok && r != tt.want) {
			t.Errorf("At(%d) = %q,%v; want %q,%v", tt.idx, r, ok, tt.want, tt.ok)
		}
	}
}

func TestStringConcatOperator(t *testing.T) {
	out := runOp(t, opStringConcat, NewString("foo"), NewString("bar"))
	if got := out.(*String).String(); got != "foobar" {
		t.Errorf("concat = %q, want foobar", got)
	}
}

func TestStringOrdering(t *testing.T) {
	a, b := NewString("abc"), NewString("abd")
	if a.Compare(b) >= 0 {
		t.Error("abc must order before abd")
	}
	if a.Compare(NewString("abc")) != 0 {
		t.Error("equal strings must compare equal")
	}

	lt := runOp(t, opStringLt, NewString("a"), NewString("b"))
	if !bool(*lt.(*Boolean)) {
		t.Error(`"a" < "b" must hold`)
	}
	eq := runOp(t, opStringEq, NewString("x"), NewString("x"))
	if !bool(*eq.(*Boolean)) {
		t.Error(`"x" == "x" must hold`)
	}
}

func TestStringSubscriptRaisesOutOfRange(t *testing.T) {
	c := newStackCursor()
	pushData(c, NewString("ab"), NewNumber(2))
	err := opStringSubscript(c, 2)
	if _, ok := err.(*IndexError); !ok {
		t.Fatalf("expected IndexError, got %v", err)
	}
}
