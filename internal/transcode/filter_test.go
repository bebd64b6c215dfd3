package transcode

import (
	"math"
	"strings"
	"testing"

	"github.com/dogaudio/dogaudio/settings"
)

func TestBuildFilterDefaults(t *testing.T) {
	// Flat EQ, unity volume, gate off: only the format plumbing remains.
	got := BuildFilter(settings.Default())
	want := "[0:a]pan=mono|c0=0.5*c0+0.5*c1," +
		"aresample=48000," +
		"aformat=sample_fmts=fltp:channel_layouts=mono," +
		"pan=stereo|c0=c0|c1=c0[aout]"

	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildFilterEQBands(t *testing.T) {
	s := settings.Default()
	s.EQ = [5]float64{3, 0, -4.5, 0.005, 12}

	got := BuildFilter(s)

	for _, want := range []string{
		"equalizer=f=100:t=q:w=1:g=3.000",
		"equalizer=f=1000:t=q:w=1:g=-4.500",
		"equalizer=f=8000:t=q:w=1:g=12.000",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}

	// Zero and near-zero bands are skipped.
	if strings.Contains(got, "f=300") || strings.Contains(got, "f=3000:") {
		t.Errorf("near-zero band not skipped:\n%s", got)
	}
}

func TestBuildFilterVolume(t *testing.T) {
	s := settings.Default()
	s.VolumeDB = -6.5

	if got := BuildFilter(s); !strings.Contains(got, "volume=-6.50dB") {
		t.Errorf("missing volume stage:\n%s", got)
	}

	s.VolumeDB = 0.005
	if got := BuildFilter(s); strings.Contains(got, "volume=") {
		t.Errorf("near-unity volume not skipped:\n%s", got)
	}
}

func TestBuildFilterStageOrder(t *testing.T) {
	// The gate must see the gained signal: with +20 dB of volume a -50 dB
	// input sits above the open threshold in the preview chain, so the batch
	// chain has to gain before gating too or the two paths diverge.
	s := settings.Default()
	s.VolumeDB = 20
	s.EQ[2] = 6
	s.GateEnabled = true

	got := BuildFilter(s)

	volume := strings.Index(got, "volume=")
	equalizer := strings.Index(got, "equalizer=")
	agate := strings.Index(got, "agate=")

	if volume < 0 || equalizer < 0 || agate < 0 {
		t.Fatalf("missing stage in:\n%s", got)
	}
	if !(volume < equalizer && equalizer < agate) {
		t.Errorf("stage order volume=%d equalizer=%d agate=%d, want volume < equalizer < agate in:\n%s",
			volume, equalizer, agate, got)
	}
}

func TestBuildFilterGateModes(t *testing.T) {
	s := settings.Default()
	s.GateEnabled = true
	s.GateMode = settings.GateModeGate
	s.CloseThrDB = -48
	s.FloorDB = -40

	got := BuildFilter(s)
	want := "agate=mode=0:threshold=-48.0dB:ratio=2.00:range=40.0dB:attack=3:release=120"
	if !strings.Contains(got, want) {
		t.Errorf("missing %q in:\n%s", want, got)
	}

	s.GateMode = settings.GateModeExpander
	s.Ratio = 4
	got = BuildFilter(s)
	want = "agate=mode=1:threshold=-48.0dB:ratio=4.00:range=40.0dB:attack=3:release=120"
	if !strings.Contains(got, want) {
		t.Errorf("missing %q in:\n%s", want, got)
	}

	s.GateEnabled = false
	if got := BuildFilter(s); strings.Contains(got, "agate") {
		t.Errorf("disabled gate still present:\n%s", got)
	}
}

func TestBuildFilterGateClamps(t *testing.T) {
	s := settings.Default()
	s.GateEnabled = true
	s.GateMode = settings.GateModeExpander
	s.Ratio = 1 // below what agate accepts in expander mode

	if got := BuildFilter(s); !strings.Contains(got, "ratio=1.10") {
		t.Errorf("ratio not raised to agate minimum:\n%s", got)
	}

	s.FloorDB = math.Inf(-1)
	if got := BuildFilter(s); !strings.Contains(got, "range=80.0dB") {
		t.Errorf("-Inf floor not clamped to deepest range:\n%s", got)
	}

	s.FloorDB = -2
	if got := BuildFilter(s); !strings.Contains(got, "range=6.0dB") {
		t.Errorf("shallow floor not clamped to minimum range:\n%s", got)
	}
}

func TestArgsWithVideo(t *testing.T) {
	s := settings.Default()
	got := Args("in.mp4", "out.mp4", s, true)

	want := []string{
		"-y", "-hide_banner", "-v", "error",
		"-i", "in.mp4",
		"-filter_complex", BuildFilter(s),
		"-map", "0:v:0", "-map", "[aout]", "-c:v", "copy",
		"-c:a", "aac", "-b:a", "192k", "out.mp4",
	}

	if len(got) != len(want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("arg %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestArgsAudioOnly(t *testing.T) {
	got := Args("in.mp3", "out.mp4", settings.Default(), false)

	joined := strings.Join(got, " ")
	if strings.Contains(joined, "0:v:0") || strings.Contains(joined, "-c:v") {
		t.Errorf("audio-only args still map video: %v", got)
	}
	if !strings.Contains(joined, "-map [aout]") {
		t.Errorf("audio-only args missing audio map: %v", got)
	}
}
