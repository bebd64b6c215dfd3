package audio

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/dogaudio/dogaudio/dsp/chain"
	"github.com/dogaudio/dogaudio/dsp/core"
	"github.com/dogaudio/dogaudio/settings"
)

// Engine owns the preview playback path: one oto context for the process
// lifetime and at most one playing stream at a time. Settings changes go
// through the chain's atomic snapshot hand-off, so they can arrive from the
// UI goroutine while audio is running.
type Engine struct {
	ffmpegBinary string
	chain        *chain.Chain
	meter        *meter
	otoCtx       *oto.Context

	mu      sync.Mutex
	player  *oto.Player
	decoder *Decoder
	done    chan struct{}
}

// NewEngine creates the engine and initializes the audio device.
func NewEngine(ffmpegBinary string) (*Engine, error) {
	c, err := chain.New(core.SampleRate)
	if err != nil {
		return nil, err
	}

	mtr, err := newMeter(core.SampleRate)
	if err != nil {
		return nil, err
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(core.SampleRate),
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("audio: open output device: %w", err)
	}
	<-ready

	return &Engine{
		ffmpegBinary: ffmpegBinary,
		chain:        c,
		meter:        mtr,
		otoCtx:       otoCtx,
	}, nil
}

// Apply schedules a settings snapshot for the next audio block.
func (e *Engine) Apply(s settings.Settings) error {
	return e.chain.Apply(s)
}

// Settings returns the most recently applied snapshot.
func (e *Engine) Settings() settings.Settings {
	return e.chain.Settings()
}

// GateOpen reports the gate state for the status display.
func (e *Engine) GateOpen() bool {
	return e.chain.GateOpen()
}

// SpectrumDB returns the smoothed post-chain level in dBFS at the given
// frequencies. Before any audio has played it reads the display floor.
func (e *Engine) SpectrumDB(freqs []float64) []float64 {
	return e.meter.curveDB(freqs)
}

// Open stops any current stream and starts playing path from the beginning.
func (e *Engine) Open(path string) error {
	e.Stop()

	decoder, err := NewDecoder(e.ffmpegBinary, path)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Fresh stream, fresh filter, gate, and meter state.
	e.chain.Reset()
	e.meter.reset()

	e.decoder = decoder
	e.done = make(chan struct{})
	e.player = e.otoCtx.NewPlayer(&streamReader{
		source: decoder,
		chain:  e.chain,
		meter:  e.meter,
		done:   e.done,
	})
	e.player.Play()

	return nil
}

// Pause suspends playback without losing the stream position.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.player != nil {
		e.player.Pause()
	}
}

// Resume continues a paused stream.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.player != nil {
		e.player.Play()
	}
}

// Playing reports whether a stream is currently audible.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.player != nil && e.player.IsPlaying()
}

// Done returns a channel closed when the current stream reaches its end.
// Nil when nothing is open.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.done
}

// Stop tears down the current stream, if any.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.player != nil {
		e.player.Close()
		e.player = nil
	}
	if e.decoder != nil {
		e.decoder.Close()
		e.decoder = nil
	}
	e.done = nil
}

// Close stops playback. The oto context cannot be closed; it lives for the
// process.
func (e *Engine) Close() {
	e.Stop()
}

// streamReader adapts the decode-process loop to the io.Reader oto pulls
// from. All processing happens on oto's reader goroutine, one block at a
// time, so the chain sees a single reader.
type streamReader struct {
	source blockSource
	chain  *chain.Chain
	meter  *meter
	done   chan struct{}

	block   []float64
	raw     []byte
	pending []byte
	eof     bool
	closed  bool
}

func (r *streamReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if r.eof {
			if !r.closed {
				r.closed = true
				close(r.done)
			}

			return 0, io.EOF
		}
		if err := r.nextBlock(); err != nil && len(r.pending) == 0 {
			if !r.closed {
				r.closed = true
				close(r.done)
			}

			return 0, err
		}
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]

	return n, nil
}

func (r *streamReader) nextBlock() error {
	if r.block == nil {
		r.block = make([]float64, core.BlockSize)
		r.raw = make([]byte, core.BlockSize*bytesPerSample)
	}

	n, err := r.source.ReadBlock(r.block)
	if err == io.EOF {
		r.eof = true
		if n == 0 {
			return io.EOF
		}
	} else if err != nil {
		return err
	}

	block := r.block[:n]
	r.chain.ProcessBlock(block)
	core.HardClip(block)

	if r.meter != nil {
		r.meter.push(block)
	}

	raw := r.raw[:n*bytesPerSample]
	samplesToBytes(raw, block)
	r.pending = raw

	return nil
}
