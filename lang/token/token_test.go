package token

import "testing"

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		if tok.String() == "" {
			t.Errorf("missing string representation for token %d", tok)
		}
	}
}

func TestLookup(t *testing.T) {
	for tok := kwStart; tok <= kwEnd; tok++ {
		if got := Lookup(tok.String()); got != tok {
			t.Errorf("Lookup(%q) = %v, want %v", tok.String(), got, tok)
		}
	}
	if got := Lookup("not_a_keyword"); got != IDENT {
		t.Errorf("Lookup(not_a_keyword) = %v, want IDENT", got)
	}
}

func TestFileSet(t *testing.T) {
	fs := NewFileSet()
	a := fs.AddFile("a.sylt", 3)
	b := fs.AddFile("b.sylt", 2)

	if got := fs.File(1); got != a {
		t.Fatalf("line 1 should resolve to a.sylt, got %v", got)
	}
	if got := fs.File(3); got != a {
		t.Fatalf("line 3 should resolve to a.sylt, got %v", got)
	}
	if got := fs.File(4); got != b {
		t.Fatalf("line 4 should resolve to b.sylt, got %v", got)
	}
	if got := b.LocalLine(5); got != 2 {
		t.Fatalf("LocalLine(5) = %d, want 2", got)
	}
}
