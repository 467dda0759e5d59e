package main

import (
	"math/rand/v2"
	"strings"
)

// noReadLine is what a fixed scanner sends when a trigger decoded nothing
const noReadLine = "NO_READ"

// noise controls how dirty a simulated burst is, both rates are percentages
type noise struct {
	NoRead  int
	Misread int
}

// burst renders one pass over a shelf item: n reads of code mixed with
// NO_READ triggers and single digit misreads
func burst(rng *rand.Rand, kind, code string, n int, nz noise) []string {
	out := make([]string, 0, n)
	for range n {
		roll := rng.IntN(100)
		switch {
		case roll < nz.NoRead:
			out = append(out, noReadLine)
		case roll < nz.NoRead+nz.Misread:
			out = append(out, line(kind, misread(rng, code)))
		default:
			out = append(out, line(kind, code))
		}
	}
	return out
}

func line(kind, code string) string {
	if kind == "" {
		return code
	}
	return kind + "," + code
}

// misread flips one digit, non-numeric codes come back unchanged
func misread(rng *rand.Rand, code string) string {
	idx := make([]int, 0, len(code))
	for i := 0; i < len(code); i++ {
		if code[i] >= '0' && code[i] <= '9' {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return code
	}
	i := idx[rng.IntN(len(idx))]
	d := byte('0' + (int(code[i]-'0')+1+rng.IntN(9))%10)
	var b strings.Builder
	b.Grow(len(code))
	b.WriteString(code[:i])
	b.WriteByte(d)
	b.WriteString(code[i+1:])
	return b.String()
}
