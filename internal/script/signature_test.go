package script

import (
	"errors"
	"testing"
)

func TestParseSignature(t *testing.T) {
	tests := []struct {
		sig   string
		name  string
		arity int
		kind  SymbolKind
	}{
		{"init()", "init", 0, MethodSymbol},
		{"setPos_(_,_,_,_)", "setPos_", 4, MethodSymbol},
		{"handler_", "handler_", 0, GetterSymbol},
		{"deltaTime_=(_)", "deltaTime_", 1, SetterSymbol},
	}
	for _, tt := range tests {
		s, err := ParseSignature(tt.sig)
		if err != nil {
			t.Fatalf("%s: %v", tt.sig, err)
		}
		if s.Name != tt.name || s.Arity != tt.arity || s.Kind != tt.kind || s.Signature != tt.sig {
			t.Errorf("%s: got %+v", tt.sig, s)
		}
	}
}

func TestParseSignatureRejects(t *testing.T) {
	for _, sig := range []string{"", "1abc()", "get(x)", "get(_", "x=", "x=(_,_)", "a b()"} {
		if _, err := ParseSignature(sig); !errors.Is(err, ErrBadSignature) {
			t.Errorf("%q: got %v, want ErrBadSignature", sig, err)
		}
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	for arity := 0; arity < 4; arity++ {
		sig := Signature("draw", arity)
		s, err := ParseSignature(sig)
		if err != nil || s.Arity != arity {
			t.Fatalf("%s: %+v %v", sig, s, err)
		}
	}
}

func TestParseDecl(t *testing.T) {
	kind, sym, err := parseDecl("static fromFile(_,_)")
	if err != nil || kind != declStatic || sym.Arity != 2 {
		t.Fatalf("got %v %+v %v", kind, sym, err)
	}
	kind, sym, err = parseDecl("construct new()")
	if err != nil || kind != declConstruct || sym.Name != "new" {
		t.Fatalf("got %v %+v %v", kind, sym, err)
	}
	if _, _, err := parseDecl("construct new"); err == nil {
		t.Fatal("constructor without parameter list accepted")
	}
}
