package source

import "testing"

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 15}
	if got := a.Cover(b); got != (Span{File: 1, Start: 5, End: 20}) {
		t.Fatalf("Cover = %v", got)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Fatalf("cross-file Cover must keep receiver, got %v", got)
	}
}

func TestSpanContains(t *testing.T) {
	outer := Span{File: 1, Start: 0, End: 10}
	tests := []struct {
		name  string
		inner Span
		want  bool
	}{
		{"inside", Span{File: 1, Start: 2, End: 4}, true},
		{"equal", outer, true},
		{"overlapping", Span{File: 1, Start: 5, End: 11}, false},
		{"other file", Span{File: 2, Start: 2, End: 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outer.Contains(tt.inner); got != tt.want {
				t.Fatalf("Contains(%v) = %v, want %v", tt.inner, got, tt.want)
			}
		})
	}
}

func TestSpanZero(t *testing.T) {
	s := Span{File: 3, Start: 4, End: 9}
	if z := s.ZeroAt(); !z.Empty() || z.Start != 4 {
		t.Fatalf("ZeroAt = %v", z)
	}
	if z := s.ZeroAtEnd(); !z.Empty() || z.Start != 9 {
		t.Fatalf("ZeroAtEnd = %v", z)
	}
	if s.Len() != 5 {
		t.Fatalf("Len = %d", s.Len())
	}
}
