package identity

import "testing"

func TestParse(t *testing.T) {
	a, err := Parse("Newtonsoft.Json, Version=12.0.3, Culture=neutral, PublicKeyToken=30ad4fe6b2a6aeed")
	if err != nil {
		t.Fatal(err)
	}
	if a.Name != "Newtonsoft.Json" || a.Version != "12.0.3" || a.Token != "30ad4fe6b2a6aeed" {
		t.Fatalf("unexpected parse result: %+v", a)
	}
	if a.Culture != "" {
		t.Fatalf("expected neutral culture to normalize to empty, got %q", a.Culture)
	}
}

func TestParseNullToken(t *testing.T) {
	a, err := Parse("Foo, Version=1.0.0.0, PublicKeyToken=null")
	if err != nil {
		t.Fatal(err)
	}
	if a.Token != "" {
		t.Fatalf("expected null token to parse empty, got %q", a.Token)
	}
}

func TestParseBadToken(t *testing.T) {
	if _, err := Parse("Foo, PublicKeyToken=zz"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestEqualCaseInsensitiveName(t *testing.T) {
	a, _ := Parse("Foo")
	b, _ := Parse("FOO")
	if !a.Equal(b) {
		t.Fatal("expected case-insensitive name match")
	}
}

func TestEqualTokenMismatch(t *testing.T) {
	a, _ := Parse("Foo, PublicKeyToken=aaaaaaaaaaaaaaaa")
	b, _ := Parse("Foo, PublicKeyToken=bbbbbbbbbbbbbbbb")
	if a.Equal(b) {
		t.Fatal("expected token mismatch to break equivalence")
	}
}

func TestTokenCompatible(t *testing.T) {
	if !TokenCompatible("aaaaaaaaaaaaaaaa", "") {
		t.Fatal("absent probe token should be compatible")
	}
	if !TokenCompatible("aaaaaaaaaaaaaaaa", "AAAAAAAAAAAAAAAA") {
		t.Fatal("token compare should be case-insensitive")
	}
	if TokenCompatible("aaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbb") {
		t.Fatal("mismatched tokens should not be compatible")
	}
}
