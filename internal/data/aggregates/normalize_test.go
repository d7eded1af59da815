package aggregates

import (
	"math"
	"testing"

	domainagg "github.com/ethixlearn/ethixlearn-backend/internal/domain/aggregates"
)

func TestNormalizeMinutes(t *testing.T) {
	cases := []struct {
		in   domainagg.Optional[float64]
		want int
	}{
		{domainagg.None[float64](), 0},
		{domainagg.Some(5.0), 5},
		{domainagg.Some(2.5), 3},
		{domainagg.Some(0.4), 0},
		{domainagg.Some(-7.0), 0},
		{domainagg.Some(math.NaN()), 0},
	}
	for _, tc := range cases {
		if got := normalizeMinutes(tc.in); got != tc.want {
			v, _ := tc.in.Get()
			t.Fatalf("normalizeMinutes(%v): want=%d got=%d", v, tc.want, got)
		}
	}
}

func TestNormalizeAttemptNo(t *testing.T) {
	cases := []struct {
		in   domainagg.Optional[float64]
		want int
	}{
		{domainagg.None[float64](), 0},
		{domainagg.Some(1.0), 1},
		{domainagg.Some(3.99), 3},
		{domainagg.Some(0.5), 0},
		{domainagg.Some(0.0), 0},
		{domainagg.Some(-2.0), 0},
	}
	for _, tc := range cases {
		if got := normalizeAttemptNo(tc.in); got != tc.want {
			v, _ := tc.in.Get()
			t.Fatalf("normalizeAttemptNo(%v): want=%d got=%d", v, tc.want, got)
		}
	}
}

func TestNormalizeProgress(t *testing.T) {
	if p, err := normalizeProgress(domainagg.Some(1.4)); err != nil || *p != 1 {
		t.Fatalf("1.4: p=%v err=%v", p, err)
	}
	if p, err := normalizeProgress(domainagg.Some(-0.2)); err != nil || *p != 0 {
		t.Fatalf("-0.2: p=%v err=%v", p, err)
	}
	if p, err := normalizeProgress(domainagg.None[float64]()); err != nil || p != nil {
		t.Fatalf("none: p=%v err=%v", p, err)
	}
	if _, err := normalizeProgress(domainagg.Some(math.Inf(1))); err == nil {
		t.Fatalf("inf: expected error")
	}
}

func TestRawJSONTreatsNullAsAbsent(t *testing.T) {
	if rawJSON([]byte(" null ")) != nil {
		t.Fatalf("null should map to nil")
	}
	if got := string(rawJSON([]byte(` {"a":1} `))); got != `{"a":1}` {
		t.Fatalf("rawJSON trimmed: got=%q", got)
	}
}
