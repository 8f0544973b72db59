package natsort

import (
	"sort"
	"testing"
)

func TestLess(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "numeric runs compare by value", a: "img2", b: "img10", want: true},
		{name: "longer key sorts after prefix", a: "img10", b: "img10a", want: true},
		{name: "reverse is false", a: "img10", b: "img2", want: false},
		{name: "case insensitive text", a: "IMG1", b: "img2", want: true},
		{name: "text before number at same position", a: "a", b: "1", want: true},
		{name: "equal strings", a: "x5", b: "x5", want: false},
		{name: "large numbers", a: "f99999999999999999999", b: "f100000000000000000000", want: true},
		{name: "leading zeros tie broken by width", a: "p1", b: "p01", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Less(tt.a, tt.b); got != tt.want {
				t.Errorf("Less(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestKeyIsDeterministic(t *testing.T) {
	for _, s := range []string{"", "abc", "a1b22c333", "007", "Straße9"} {
		if c := Compare(New(s), New(s)); c != 0 {
			t.Errorf("Compare(New(%q), New(%q)) = %d, want 0", s, s, c)
		}
	}
}

func TestSortOrder(t *testing.T) {
	names := []string{"b10", "b2", "b1"}
	sort.Slice(names, func(i, j int) bool { return Less(names[i], names[j]) })

	want := []string{"b1", "b2", "b10"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", names, want)
		}
	}
}

func TestNewTokens(t *testing.T) {
	key := New("Img012b")
	if len(key) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %+v", len(key), key)
	}
	if key[0].Numeric || key[0].Text != "img" {
		t.Errorf("token 0 = %+v, want text img", key[0])
	}
	if !key[1].Numeric || key[1].Digits != "12" {
		t.Errorf("token 1 = %+v, want numeric 12", key[1])
	}
	if key[2].Numeric || key[2].Text != "b" {
		t.Errorf("token 2 = %+v, want text b", key[2])
	}
}
