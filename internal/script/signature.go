package script

import (
	"errors"
	"fmt"
	"strings"
)

// SymbolKind tells how a call handle reaches its target.
type SymbolKind int

const (
	// MethodSymbol calls receiver[name](receiver, args...).
	MethodSymbol SymbolKind = iota
	// GetterSymbol reads receiver[name], calling it when it is a function.
	GetterSymbol
	// SetterSymbol assigns receiver[name] = arg.
	SetterSymbol
)

// FnSymbol is a compiled call signature such as "update()", "setPos_(_,_)",
// "deltaTime" or "deltaTime_=(_)".
type FnSymbol struct {
	Signature string
	Name      string
	Arity     int
	Kind      SymbolKind
}

var ErrBadSignature = errors.New("malformed signature")

// ParseSignature compiles a signature string into a FnSymbol.
func ParseSignature(sig string) (FnSymbol, error) {
	name, params, hasParams := strings.Cut(sig, "(")
	kind := MethodSymbol
	if strings.HasSuffix(name, "=") {
		name = strings.TrimSuffix(name, "=")
		kind = SetterSymbol
	}
	if !isIdent(name) {
		return FnSymbol{}, fmt.Errorf("%w: %q", ErrBadSignature, sig)
	}
	if !hasParams {
		if kind == SetterSymbol {
			return FnSymbol{}, fmt.Errorf("%w: setter %q needs a parameter", ErrBadSignature, sig)
		}
		return FnSymbol{Signature: sig, Name: name, Kind: GetterSymbol}, nil
	}
	params, ok := strings.CutSuffix(params, ")")
	if !ok {
		return FnSymbol{}, fmt.Errorf("%w: %q is missing ')'", ErrBadSignature, sig)
	}
	arity := 0
	if params != "" {
		for _, p := range strings.Split(params, ",") {
			if p != "_" {
				return FnSymbol{}, fmt.Errorf("%w: parameter %q in %q must be '_'", ErrBadSignature, p, sig)
			}
			arity++
		}
	}
	if kind == SetterSymbol && arity != 1 {
		return FnSymbol{}, fmt.Errorf("%w: setter %q takes exactly one parameter", ErrBadSignature, sig)
	}
	return FnSymbol{Signature: sig, Name: name, Arity: arity, Kind: kind}, nil
}

// MustParseSignature is ParseSignature for signatures known at compile time.
func MustParseSignature(sig string) FnSymbol {
	s, err := ParseSignature(sig)
	if err != nil {
		panic(err)
	}
	return s
}

// Signature formats name with arity placeholders: Signature("get", 1) == "get(_)".
func Signature(name string, arity int) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i := 0; i < arity; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('_')
	}
	b.WriteByte(')')
	return b.String()
}

type declKind int

const (
	declMethod declKind = iota
	declConstruct
	declStatic
)

// parseDecl splits a foreign declaration like "static fromFile(_,_)".
func parseDecl(decl string) (declKind, FnSymbol, error) {
	kind := declMethod
	rest := strings.TrimSpace(decl)
	if r, ok := strings.CutPrefix(rest, "construct "); ok {
		kind, rest = declConstruct, strings.TrimSpace(r)
	} else if r, ok := strings.CutPrefix(rest, "static "); ok {
		kind, rest = declStatic, strings.TrimSpace(r)
	}
	sym, err := ParseSignature(rest)
	if err != nil {
		return kind, sym, err
	}
	if sym.Kind != MethodSymbol && kind == declConstruct {
		return kind, sym, fmt.Errorf("%w: constructor %q needs a parameter list", ErrBadSignature, decl)
	}
	return kind, sym, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
