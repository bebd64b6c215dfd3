// Package transcode builds and runs the ffmpeg command that applies a saved
// cleanup profile to a media file. The filter chain mirrors the in-process
// preview chain stage for stage: mono downmix, resample, master volume,
// per-band peaking EQ, gate, stereo duplicate. Volume runs before the gate so
// its detector sees the gained signal, exactly as in the preview. ffmpeg's
// agate has a single threshold, so the close threshold is used; exact numeric
// parity with the preview gate is not promised.
package transcode

import (
	"fmt"
	"math"
	"strings"

	"github.com/dogaudio/dogaudio/dsp/core"
	"github.com/dogaudio/dogaudio/dsp/eq"
	"github.com/dogaudio/dogaudio/settings"
)

const (
	// Band gains this close to zero are omitted from the chain.
	negligibleDB = 0.01

	// agate's range parameter (maximum attenuation) is clamped to what the
	// filter accepts.
	minAgateRangeDB = 6.0
	maxAgateRangeDB = 80.0

	// agate insists on ratio > 1 in expander mode.
	minAgateRatio = 1.1

	// Gate mode ignores the configured ratio; agate still wants one.
	gateModeRatio = 2.0
)

// BuildFilter renders s as an ffmpeg -filter_complex chain reading [0:a] and
// labeling its output [aout].
func BuildFilter(s settings.Settings) string {
	parts := []string{
		"[0:a]pan=mono|c0=0.5*c0+0.5*c1",
		fmt.Sprintf("aresample=%d", int(core.SampleRate)),
		"aformat=sample_fmts=fltp:channel_layouts=mono",
	}

	// Same stage order as dsp/chain: gain, then EQ, then gate, so the gate
	// reacts to the signal the listener will hear.
	if math.Abs(s.VolumeDB) > negligibleDB {
		parts = append(parts, fmt.Sprintf("volume=%.2fdB", s.VolumeDB))
	}

	for i, gainDB := range s.EQ {
		if math.Abs(gainDB) < negligibleDB {
			continue
		}
		parts = append(parts, fmt.Sprintf("equalizer=f=%d:t=q:w=1:g=%.3f",
			int(eq.BandFrequencies[i]), gainDB))
	}

	if s.GateEnabled {
		parts = append(parts, agateFilter(s))
	}

	parts = append(parts, "pan=stereo|c0=c0|c1=c0[aout]")

	return strings.Join(parts, ",")
}

func agateFilter(s settings.Settings) string {
	mode := 0
	ratio := gateModeRatio
	if s.GateMode == settings.GateModeExpander {
		mode = 1
		ratio = math.Max(minAgateRatio, s.Ratio)
	}

	// A -Inf floor clamps to the deepest range agate supports.
	rangeDB := core.Clamp(math.Abs(s.FloorDB), minAgateRangeDB, maxAgateRangeDB)

	return fmt.Sprintf("agate=mode=%d:threshold=%.1fdB:ratio=%.2f:range=%.1fdB:attack=3:release=120",
		mode, s.CloseThrDB, ratio, rangeDB)
}

// Args assembles the full ffmpeg argument list for one file. With withVideo
// the first video stream is copied unchanged; audio-only inputs skip the
// video mapping entirely. Audio is re-encoded as 192 kbit/s AAC.
func Args(src, dst string, s settings.Settings, withVideo bool) []string {
	args := []string{
		"-y", "-hide_banner", "-v", "error",
		"-i", src,
		"-filter_complex", BuildFilter(s),
	}

	if withVideo {
		args = append(args, "-map", "0:v:0", "-map", "[aout]", "-c:v", "copy")
	} else {
		args = append(args, "-map", "[aout]")
	}

	args = append(args, "-c:a", "aac", "-b:a", "192k", dst)

	return args
}
