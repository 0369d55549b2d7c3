package wheel

import (
	"math"
	"math/rand/v2"
	"testing"

	"wheel/internal/biz/outcome"
)

const eps = 1e-9

func TestNewWheel(t *testing.T) {
	if _, err := New(DefaultSegments()); err != nil {
		t.Fatalf("default segments: %v", err)
	}
	if _, err := New(DefaultSegments()[:1]); err == nil {
		t.Fatalf("expected error for single segment")
	}
	bad := DefaultSegments()
	bad[3].Color = "#GG0000"
	if _, err := New(bad); err == nil {
		t.Fatalf("expected error for invalid color")
	}
	blank := DefaultSegments()
	blank[0].Label = " "
	if _, err := New(blank); err == nil {
		t.Fatalf("expected error for empty label")
	}
}

func TestParseHexColor(t *testing.T) {
	r, g, b, err := ParseHexColor("#FF6B6B")
	if err != nil || r != 0xFF || g != 0x6B || b != 0x6B {
		t.Fatalf("ParseHexColor = %d %d %d %v", r, g, b, err)
	}
	r, g, b, err = ParseHexColor("fff")
	if err != nil || r != 0xFF || g != 0xFF || b != 0xFF {
		t.Fatalf("ParseHexColor short = %d %d %d %v", r, g, b, err)
	}
	if _, _, _, err = ParseHexColor("#12345"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestComputeTargetAngle(t *testing.T) {
	if got := ComputeTargetAngle(0, 8); math.Abs(got-(-math.Pi/8)) > eps {
		t.Fatalf("ComputeTargetAngle(0,8) = %v, want %v", got, -math.Pi/8)
	}
	if got := ComputeTargetAngle(3, 4); math.Abs(got-(-(3*math.Pi/2 + math.Pi/4))) > eps {
		t.Fatalf("ComputeTargetAngle(3,4) = %v", got)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{-math.Pi / 8, TwoPi - math.Pi/8},
		{TwoPi, 0},
		{5*TwoPi + 1, 1},
		{-3 * TwoPi, 0},
	}
	for _, c := range cases {
		got := Normalize(c.in)
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("Normalize(%v) = %v, want %v", c.in, got, c.want)
		}
		if got < 0 || got >= TwoPi {
			t.Fatalf("Normalize(%v) = %v out of range", c.in, got)
		}
	}
	if got := Normalize(-1e-18); got < 0 || got >= TwoPi {
		t.Fatalf("Normalize(-tiny) = %v out of range", got)
	}
}

func TestSegmentAtTargetAngle(t *testing.T) {
	for n := 2; n <= 16; n++ {
		for i := 0; i < n; i++ {
			a := ComputeTargetAngle(i, n)
			for k := 0.0; k < 4; k++ {
				if got := SegmentAt(a+k*TwoPi, n); got != i {
					t.Fatalf("n=%d i=%d k=%v: SegmentAt = %d", n, i, k, got)
				}
			}
		}
	}
	// 未旋转时，指针右侧紧邻扇区 0
	if got := SegmentAt(-0.01, 8); got != 0 {
		t.Fatalf("SegmentAt(-0.01) = %d", got)
	}
}

func TestResolveTargetIndexPrize(t *testing.T) {
	segs := DefaultSegments()
	o := &outcome.Outcome{Success: true, Type: outcome.TypePrize, Result: "大奖"}
	for i := 0; i < 100; i++ {
		if got := ResolveTargetIndex(o, segs, nil); got != 0 {
			t.Fatalf("ResolveTargetIndex(大奖) = %d, want 0", got)
		}
	}
	o.Result = "特别奖"
	if got := ResolveTargetIndex(o, segs, nil); got != 4 {
		t.Fatalf("ResolveTargetIndex(特别奖) = %d, want 4", got)
	}
	if a := ComputeTargetAngle(ResolveTargetIndex(&outcome.Outcome{Type: outcome.TypePrize, Result: "大奖"}, segs, nil), len(segs)); math.Abs(a+math.Pi/8) > eps {
		t.Fatalf("target angle for 大奖 = %v", a)
	}
}

func TestResolveTargetIndexFallback(t *testing.T) {
	segs := DefaultSegments()
	o := &outcome.Outcome{Type: outcome.TypePrize, Result: "不存在的奖品"}
	if got := ResolveTargetIndex(o, segs, nil); got != FallbackIndex {
		t.Fatalf("unknown prize = %d, want %d", got, FallbackIndex)
	}

	allPrize := []Segment{{Label: "a", Color: "#000", Prize: true}, {Label: "b", Color: "#fff", Prize: true}}
	poem := &outcome.Outcome{Type: outcome.TypePoem, Result: "执子之手，与子偕老"}
	if got := ResolveTargetIndex(poem, allPrize, nil); got != FallbackIndex {
		t.Fatalf("no non-prize segment = %d, want %d", got, FallbackIndex)
	}
}

func TestResolveTargetIndexUniform(t *testing.T) {
	segs := DefaultSegments()
	var nonPrize []int
	for i, s := range segs {
		if !s.Prize {
			nonPrize = append(nonPrize, i)
		}
	}

	const samples = 10000
	rng := rand.New(rand.NewPCG(20240214, 1314))
	counts := make(map[int]int)
	poem := &outcome.Outcome{Success: true, Type: outcome.TypePoem, Result: "一日不见兮，思之如狂"}
	for i := 0; i < samples; i++ {
		idx := ResolveTargetIndex(poem, segs, rng)
		if segs[idx].Prize {
			t.Fatalf("non-prize outcome landed on prize segment %d", idx)
		}
		counts[idx]++
	}

	// 卡方检验，自由度 k-1=4，p=0.001 临界值 18.467
	expected := float64(samples) / float64(len(nonPrize))
	chi2 := 0.0
	for _, idx := range nonPrize {
		d := float64(counts[idx]) - expected
		chi2 += d * d / expected
	}
	if chi2 > 18.467 {
		t.Fatalf("distribution not uniform: chi2=%.3f counts=%v", chi2, counts)
	}
	t.Logf("chi2=%.3f counts=%v", chi2, counts)
}
