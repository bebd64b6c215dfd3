package testutil

import (
	"math"
	"testing"
)

func TestSine(t *testing.T) {
	s := Sine(1000, 48000, 1.0, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
	// First sample of a sine at phase 0 should be 0.
	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	// All values in [-1, 1].
	for i, v := range s {
		if v < -1 || v > 1 {
			t.Fatalf("s[%d] = %v out of range", i, v)
		}
	}
}

func TestSineReproducible(t *testing.T) {
	a := Sine(440, 44100, 0.5, 100)
	b := Sine(440, 44100, 0.5, 100)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at index %d", i)
		}
	}
}

func TestNoise(t *testing.T) {
	a := Noise(42, 1.0, 64)
	b := Noise(42, 1.0, 64)
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("noise not deterministic at index %d", i)
		}
	}
}

func TestNoiseDifferentSeeds(t *testing.T) {
	a := Noise(1, 1.0, 16)
	b := Noise(2, 1.0, 16)
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestToneBurst(t *testing.T) {
	b := ToneBurst(1000, 48000, 0.5, 100, 200)
	if len(b) != 300 {
		t.Fatalf("len = %d, want 300", len(b))
	}
	for i := 0; i < 100; i++ {
		if b[i] != 0 {
			t.Fatalf("b[%d] = %v, want silence before the burst", i, b[i])
		}
	}
	if Peak(b[100:]) < 0.4 {
		t.Fatalf("burst peak = %v, want near 0.5", Peak(b[100:]))
	}
}

func TestImpulse(t *testing.T) {
	imp := Impulse(8, 3)
	if len(imp) != 8 {
		t.Fatalf("len = %d, want 8", len(imp))
	}
	for i, v := range imp {
		if i == 3 {
			if v != 1 {
				t.Fatalf("imp[3] = %v, want 1", v)
			}
		} else if v != 0 {
			t.Fatalf("imp[%d] = %v, want 0", i, v)
		}
	}
}

func TestImpulseOutOfBounds(t *testing.T) {
	imp := Impulse(4, 10)
	for i, v := range imp {
		if v != 0 {
			t.Fatalf("imp[%d] = %v, want all zeros for out-of-bounds pos", i, v)
		}
	}
}

func TestDC(t *testing.T) {
	d := DC(0.5, 4)
	for i, v := range d {
		if v != 0.5 {
			t.Fatalf("DC[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestPeakDB(t *testing.T) {
	if got := PeakDB([]float64{0, 0.5, -1, 0.25}); got != 0 {
		t.Fatalf("PeakDB = %v, want 0 for a full-scale sample", got)
	}
	if got := PeakDB([]float64{0.1, -0.1}); math.Abs(got+20) > 1e-9 {
		t.Fatalf("PeakDB = %v, want -20", got)
	}
	if got := PeakDB([]float64{0, 0}); !math.IsInf(got, -1) {
		t.Fatalf("PeakDB of silence = %v, want -Inf", got)
	}
}
