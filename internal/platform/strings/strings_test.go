package strings

import (
	"slices"
	"testing"

	"shelfscan/internal/platform/testkit"
)

func TestIfEmpty(t *testing.T) {
	if got := IfEmpty([]string{"GET"}, []string{"POST"}); !slices.Equal(got, []string{"GET"}) {
		t.Fatalf("kept = %v", got)
	}
	if got := IfEmpty(nil, []int{5}); !slices.Equal(got, []int{5}) {
		t.Fatalf("default = %v", got)
	}
}

func TestMustPrefix(t *testing.T) {
	for in, want := range map[string]string{"/scan/": "/scan", " meta ": "/meta", "//api/v1//": "/api/v1"} {
		if got := MustPrefix(in); got != want {
			t.Errorf("MustPrefix(%q) = %q, want %q", in, got, want)
		}
	}
	for _, in := range []string{"", "/", " // "} {
		testkit.MustPanic(t, func() { MustPrefix(in) })
	}
}
