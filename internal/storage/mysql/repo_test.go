package mysql

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"₺1500", 3, "₺"},
		{"₺1500", 2, ""},
		{"ağaç", 2, "a"},
		{"ağaç", 3, "ağ"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.n); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}

	long := strings.Repeat("ş", maxReason)
	got := truncate(long, maxReason)
	if !utf8.ValidString(got) || len(got) != maxReason {
		t.Fatalf("bad truncation: len=%d valid=%v", len(got), utf8.ValidString(got))
	}

	if got := truncate("x"+long, maxReason); len(got) != maxReason-1 || !utf8.ValidString(got) {
		t.Fatalf("odd offset: len=%d valid=%v", len(got), utf8.ValidString(got))
	}
}
