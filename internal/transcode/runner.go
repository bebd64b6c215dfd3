package transcode

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/dogaudio/dogaudio/settings"
)

// DefaultBinary is used when no explicit ffmpeg path is configured; it is
// resolved through PATH.
const DefaultBinary = "ffmpeg"

// Runner invokes ffmpeg for one file at a time.
type Runner struct {
	binary string
}

// NewRunner creates a runner for the given ffmpeg binary. An empty path
// falls back to [DefaultBinary].
func NewRunner(binary string) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}

	return &Runner{binary: binary}
}

// Binary returns the configured ffmpeg path.
func (r *Runner) Binary() string { return r.binary }

// Probe checks that the ffmpeg binary can be executed at all, so a missing
// install fails at startup instead of on the first file.
func (r *Runner) Probe(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, r.binary, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("transcode: ffmpeg not runnable at %q: %w", r.binary, err)
	}

	return nil
}

// Process transcodes src into dst with the filter chain derived from s.
// ffmpeg's stderr is folded into the returned error; the command is killed
// if ctx is canceled.
func (r *Runner) Process(ctx context.Context, src, dst string, s settings.Settings, withVideo bool) error {
	cmd := exec.CommandContext(ctx, r.binary, Args(src, dst, s, withVideo)...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("transcode: ffmpeg failed on %s: %w: %s", src, err, msg)
		}

		return fmt.Errorf("transcode: ffmpeg failed on %s: %w", src, err)
	}

	return nil
}
