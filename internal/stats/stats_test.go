package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMean(t *testing.T) {
	if m := Mean([]float64{1, 2, 3, 4}); m != 2.5 {
		t.Errorf("Mean = %v, want 2.5", m)
	}
	if m := Mean(nil); m != 0 {
		t.Errorf("Mean(nil) = %v, want 0", m)
	}
}

func TestStdDev(t *testing.T) {
	// Sample std of {2,4,4,4,5,5,7,9} with n-1: variance 32/7
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	want := math.Sqrt(32.0 / 7.0)
	if !almostEqual(got, want, 1e-12) {
		t.Errorf("StdDev = %v, want %v", got, want)
	}

	if sd := StdDev([]float64{5}); sd != 0 {
		t.Errorf("StdDev single = %v, want 0", sd)
	}
}

func TestPopStdDev(t *testing.T) {
	got := PopStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if !almostEqual(got, 2.0, 1e-12) {
		t.Errorf("PopStdDev = %v, want 2", got)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}

	cases := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{50, 30},
		{100, 50},
		{25, 20},
		{90, 46}, // idx 3.6 → 40 + 0.6*(50-40)
	}
	for _, c := range cases {
		if got := Percentile(sorted, c.p); !almostEqual(got, c.want, 1e-12) {
			t.Errorf("Percentile(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestPercentileOf_DoesNotMutate(t *testing.T) {
	values := []float64{30, 10, 20}
	got := PercentileOf(values, 50)
	if got != 20 {
		t.Errorf("PercentileOf = %v, want 20", got)
	}
	if values[0] != 30 {
		t.Error("PercentileOf mutated its input")
	}
}

func TestSkewness(t *testing.T) {
	// Symmetric sample → skewness 0
	if s := Skewness([]float64{-2, -1, 0, 1, 2}); !almostEqual(s, 0, 1e-12) {
		t.Errorf("symmetric Skewness = %v, want 0", s)
	}
	// Right-tailed sample → positive skew
	if s := Skewness([]float64{1, 1, 1, 1, 10}); s <= 0 {
		t.Errorf("right-tailed Skewness = %v, want > 0", s)
	}
	if s := Skewness([]float64{1, 2}); s != 0 {
		t.Errorf("n<3 Skewness = %v, want 0", s)
	}
}

func TestExcessKurtosis(t *testing.T) {
	// Uniform two-point {-1,1,...} has kurtosis 1 → excess -2
	if k := ExcessKurtosis([]float64{-1, 1, -1, 1}); !almostEqual(k, -2, 1e-12) {
		t.Errorf("ExcessKurtosis = %v, want -2", k)
	}
}

func TestRanks(t *testing.T) {
	got := Ranks([]float64{10, 30, 20})
	want := []float64{1, 3, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Ranks[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// Ties take the average rank
	got = Ranks([]float64{5, 5, 1})
	want = []float64{2.5, 2.5, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tied Ranks[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNormInv(t *testing.T) {
	// Fast paths for common confidence levels
	if z := NormInv(0.95); z != 1.645 {
		t.Errorf("NormInv(0.95) = %v, want 1.645", z)
	}
	if z := NormInv(0.99); z != 2.326 {
		t.Errorf("NormInv(0.99) = %v, want 2.326", z)
	}

	// Approximation accuracy away from the fast paths
	if z := NormInv(0.5); !almostEqual(z, 0, 1e-6) {
		t.Errorf("NormInv(0.5) = %v, want 0", z)
	}
	if z := NormInv(0.975001); !almostEqual(z, 1.96, 1e-3) {
		t.Errorf("NormInv(0.975001) = %v, want ~1.96", z)
	}

	// Symmetry
	if z := NormInv(0.025); !almostEqual(z, -NormInv(0.975001), 1e-3) {
		t.Errorf("NormInv(0.025) = %v, want ~-1.96", z)
	}

	// Out-of-domain inputs
	if z := NormInv(0); z != 0 {
		t.Errorf("NormInv(0) = %v, want 0", z)
	}
	if z := NormInv(1); z != 0 {
		t.Errorf("NormInv(1) = %v, want 0", z)
	}
}

func TestNormPDF(t *testing.T) {
	if p := NormPDF(0); !almostEqual(p, 1/math.Sqrt(2*math.Pi), 1e-12) {
		t.Errorf("NormPDF(0) = %v", p)
	}
}
