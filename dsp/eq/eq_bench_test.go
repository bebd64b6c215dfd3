package eq

import (
	"math"
	"strconv"
	"testing"
)

func makeBenchSignal(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * float64(i) / float64(n))
	}

	return out
}

func BenchmarkProcessBlock(b *testing.B) {
	sizes := []int{64, 256, 1024, 4096}
	for _, n := range sizes {
		g, err := New(48000)
		if err != nil {
			b.Fatal(err)
		}
		_ = g.SetGains([NumBands]float64{3, -3, 6, -6, 3})
		signal := makeBenchSignal(n)

		b.Run(strconv.Itoa(n), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(n * 8))

			for range b.N {
				g.ProcessBlock(signal)
			}
		})
	}
}
