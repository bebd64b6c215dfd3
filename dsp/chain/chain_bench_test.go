package chain

import (
	"testing"

	"github.com/dogaudio/dogaudio/dsp/core"
	"github.com/dogaudio/dogaudio/internal/testutil"
	"github.com/dogaudio/dogaudio/settings"
)

func BenchmarkChainProcessBlock(b *testing.B) {
	c, err := New(core.SampleRate)
	if err != nil {
		b.Fatal(err)
	}

	s := settings.Default()
	s.VolumeDB = 3
	s.EQ = [5]float64{3, -3, 6, -6, 3}
	s.GateEnabled = true
	if err := c.Apply(s); err != nil {
		b.Fatal(err)
	}

	signal := testutil.Sine(440, core.SampleRate, 0.25, core.BlockSize)

	b.ReportAllocs()
	b.SetBytes(int64(core.BlockSize * 8))

	for range b.N {
		c.ProcessBlock(signal)
	}
}
