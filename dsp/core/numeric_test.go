package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name           string
		value, lo, hi  float64
		want           float64
	}{
		{"inside", 0.5, 0, 1, 0.5},
		{"below", -2, 0, 1, 0},
		{"above", 3, 0, 1, 1},
		{"swapped bounds", 0.5, 1, 0, 0.5},
		{"at lower edge", 0, 0, 1, 0},
		{"at upper edge", 1, 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.value, tt.lo, tt.hi); got != tt.want {
				t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.value, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestDBToLinear(t *testing.T) {
	tests := []struct {
		name string
		db   float64
		want float64
	}{
		{"unity", 0, 1},
		{"+20 dB", 20, 10},
		{"-20 dB", -20, 0.1},
		{"+6 dB", 6.0205999132796239, 2},
		{"-Inf mutes", math.Inf(-1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DBToLinear(tt.db)
			if !NearlyEqual(got, tt.want, 1e-12) {
				t.Errorf("DBToLinear(%v) = %v, want %v", tt.db, got, tt.want)
			}
		})
	}
}

func TestLinearToDB(t *testing.T) {
	if got := LinearToDB(10); !NearlyEqual(got, 20, 1e-12) {
		t.Errorf("LinearToDB(10) = %v, want 20", got)
	}

	if got := LinearToDB(0); !math.IsInf(got, -1) {
		t.Errorf("LinearToDB(0) = %v, want -Inf", got)
	}

	if got := LinearToDB(-1); !math.IsNaN(got) {
		t.Errorf("LinearToDB(-1) = %v, want NaN", got)
	}
}

func TestDBRoundTrip(t *testing.T) {
	for _, db := range []float64{-24, -12, -3, 0, 3, 12, 24} {
		if got := LinearToDB(DBToLinear(db)); !NearlyEqual(got, db, 1e-9) {
			t.Errorf("round trip %v dB = %v", db, got)
		}
	}
}

func TestFlushDenormals(t *testing.T) {
	if got := FlushDenormals(1e-40); got != 0 {
		t.Errorf("FlushDenormals(1e-40) = %v, want 0", got)
	}

	if got := FlushDenormals(1e-20); got != 1e-20 {
		t.Errorf("FlushDenormals(1e-20) = %v, want unchanged", got)
	}
}

func TestIsFinite(t *testing.T) {
	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) || IsFinite(math.Inf(-1)) {
		t.Error("IsFinite accepted a non-finite value")
	}

	if !IsFinite(0) || !IsFinite(-1e300) {
		t.Error("IsFinite rejected a finite value")
	}
}

func TestHardClip(t *testing.T) {
	buf := []float64{-2, -1, -0.5, 0, 0.5, 1, 2}
	HardClip(buf)

	want := []float64{-1, -1, -0.5, 0, 0.5, 1, 1}
	for i := range buf {
		if buf[i] != want[i] {
			t.Errorf("index %d: got %v, want %v", i, buf[i], want[i])
		}
	}
}

func TestEnsureLen(t *testing.T) {
	buf := make([]float64, 0, 16)

	got := EnsureLen(buf, 8)
	if len(got) != 8 {
		t.Fatalf("len = %d, want 8", len(got))
	}

	if &got[0] != &buf[:1][0] {
		t.Error("EnsureLen reallocated despite sufficient capacity")
	}

	grown := EnsureLen(buf, 32)
	if len(grown) != 32 {
		t.Fatalf("len = %d, want 32", len(grown))
	}
}
