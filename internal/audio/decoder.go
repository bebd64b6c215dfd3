// Package audio provides the tuner's live preview path: ffmpeg decodes the
// media file to raw mono float samples, the processing chain transforms them
// block by block, and oto plays the result.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os/exec"

	"github.com/dogaudio/dogaudio/dsp/core"
)

const bytesPerSample = 4 // 32-bit float PCM

// blockSource delivers successive blocks of mono float64 samples.
type blockSource interface {
	// ReadBlock fills buf and returns the number of samples read. io.EOF
	// after the final samples.
	ReadBlock(buf []float64) (int, error)
	Close() error
}

// Decoder streams a media file's audio as 48 kHz mono float64 blocks by
// piping ffmpeg's f32le output.
type Decoder struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	raw    []byte
}

// NewDecoder starts ffmpeg decoding path. The returned decoder must be
// closed to reap the process.
func NewDecoder(binary, path string) (*Decoder, error) {
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.Command(binary,
		"-v", "error",
		"-i", path,
		"-map", "0:a:0",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", int(core.SampleRate)),
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("audio: decoder pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("audio: start ffmpeg: %w", err)
	}

	return &Decoder{cmd: cmd, stdout: stdout}, nil
}

// ReadBlock fills buf with decoded samples. A short count with io.EOF marks
// the end of the stream.
func (d *Decoder) ReadBlock(buf []float64) (int, error) {
	need := len(buf) * bytesPerSample
	if cap(d.raw) < need {
		d.raw = make([]byte, need)
	}
	raw := d.raw[:need]

	n, err := io.ReadFull(d.stdout, raw)
	samples := n / bytesPerSample
	bytesToSamples(buf[:samples], raw[:samples*bytesPerSample])

	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}

	return samples, err
}

// Close terminates ffmpeg and reaps the process.
func (d *Decoder) Close() error {
	d.stdout.Close()
	if d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	_ = d.cmd.Wait()

	return nil
}

func bytesToSamples(dst []float64, src []byte) {
	for i := range dst {
		bits := binary.LittleEndian.Uint32(src[i*bytesPerSample:])
		dst[i] = float64(math.Float32frombits(bits))
	}
}

func samplesToBytes(dst []byte, src []float64) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*bytesPerSample:], math.Float32bits(float32(v)))
	}
}
