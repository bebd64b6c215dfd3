// Command watcher is the headless half of the toolkit: it monitors an inbox
// directory and runs every stable media file through ffmpeg with the filter
// chain built from the saved tuner settings.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/dogaudio/dogaudio/internal/transcode"
	"github.com/dogaudio/dogaudio/internal/watch"
	"github.com/dogaudio/dogaudio/settings"
)

var version = "0.3.0"

// videoExtensions lists inputs whose video stream is copied through; anything
// else accepted below is treated as audio-only.
var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".mkv": true,
	".avi": true,
	".m4v": true,
}

var mediaExtensions = []string{".mp4", ".mov", ".mkv", ".avi", ".m4v", ".mp3", ".wav", ".flac"}

type CLI struct {
	Inbox    string           `short:"i" type:"path" default:"inbox" help:"Directory watched for new media files."`
	Out      string           `short:"o" type:"path" default:"out" help:"Directory for processed files."`
	Errors   string           `short:"e" type:"path" default:"errors" help:"Directory failed inputs are moved to."`
	Settings string           `short:"s" type:"path" default:"settings.json" help:"Settings file, shared with the tuner."`
	FFmpeg   string           `default:"ffmpeg" help:"ffmpeg binary to run."`
	Poll     time.Duration    `default:"1s" help:"Directory rescan interval."`
	Stable   time.Duration    `default:"1s" help:"How long a file's size must hold before processing."`
	Verbose  bool             `help:"Enable debug logging."`
	Version  kong.VersionFlag `short:"v" help:"Show version."`
}

func main() {
	cli := &CLI{}
	kong.Parse(cli,
		kong.Name("watcher"),
		kong.Description("Folder watcher applying saved tuner settings through ffmpeg."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "watcher",
	})
	if cli.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	for _, dir := range []string{cli.Out, cli.Errors} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("create directory", "dir", dir, "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := transcode.NewRunner(cli.FFmpeg)
	if err := runner.Probe(ctx); err != nil {
		logger.Fatal("ffmpeg not usable", "binary", runner.Binary(), "err", err)
	}

	store := settings.NewStore(cli.Settings)

	p := &processor{
		runner: runner,
		store:  store,
		outDir: cli.Out,
		errDir: cli.Errors,
		logger: logger,
	}

	w, err := watch.New(watch.Config{
		Dir:          cli.Inbox,
		Extensions:   mediaExtensions,
		PollInterval: cli.Poll,
		StableAfter:  cli.Stable,
		Logger:       logger,
	}, p.handle)
	if err != nil {
		logger.Fatal("start watcher", "err", err)
	}

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("watcher stopped", "err", err)
	}

	logger.Info("shutting down")
}

// processor turns one stable inbox file into its tuned output.
type processor struct {
	runner *transcode.Runner
	store  *settings.Store
	outDir string
	errDir string
	logger *log.Logger
}

// handle reloads the saved settings, transcodes src, and on failure moves the
// input aside so it is not retried forever.
func (p *processor) handle(ctx context.Context, src string) error {
	s, err := p.store.LoadCurrent()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	s = s.Normalize()

	base := filepath.Base(src)
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dst := filepath.Join(p.outDir, stem+"_tuned.mp4")

	p.logger.Debug("transcoding", "src", base, "dst", dst, "filter", transcode.BuildFilter(s))

	// Processed inputs stay in the inbox; the state machine remembers them.
	if err := p.runner.Process(ctx, src, dst, s, videoExtensions[ext]); err != nil {
		p.quarantine(src, base)

		return err
	}

	return nil
}

func (p *processor) quarantine(src, base string) {
	dst := filepath.Join(p.errDir, base)
	if err := os.Rename(src, dst); err != nil {
		p.logger.Warn("move to errors dir", "file", base, "err", err)
	}
}
