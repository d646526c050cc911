package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"fyne.io/fyne/v2/app"
	"github.com/kkdai/youtube/v2"

	"github.com/ytget/ytmux/internal/compress"
	"github.com/ytget/ytmux/internal/config"
	"github.com/ytget/ytmux/internal/download"
	"github.com/ytget/ytmux/internal/logger"
	"github.com/ytget/ytmux/internal/media"
	"github.com/ytget/ytmux/internal/metrics"
	"github.com/ytget/ytmux/internal/model"
	"github.com/ytget/ytmux/internal/pipeline"
	"github.com/ytget/ytmux/internal/platform"
	"github.com/ytget/ytmux/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.ytget.ytmux"
	AppName = "ytmux"
)

// Exit codes
const (
	ExitOK          = 0
	ExitItemsFailed = 1
	ExitUsage       = 2
)

type options struct {
	url         string
	dir         string
	audioOnly   bool
	resolution  string
	captions    bool
	language    string
	reveal      bool
	metricsAddr string
	showVersion bool
}

func main() {
	os.Exit(run())
}

func run() int {
	_ = config.LoadEnv()
	env := config.FromEnv()

	log := logger.New(env.LogLevel, env.LogFormat)
	slog.SetDefault(log)
	youtube.Logger = log.With(slog.String("component", "youtube"))

	fyneApp := app.NewWithID(AppID)
	settings := config.NewSettings(fyneApp)

	opts, err := parseFlags(os.Args[1:], settings, env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitUsage
	}
	if opts.showVersion {
		fmt.Printf("%s v%s\n", AppName, version)
		return ExitOK
	}

	mode := model.AudioOnlyMode()
	if !opts.audioOnly {
		mode = model.VideoMode(opts.resolution)
	}
	if err := mode.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitUsage
	}

	var m *metrics.Metrics
	if opts.metricsAddr != "" {
		m = metrics.New()
		go serveMetrics(opts.metricsAddr, m, log)
	}

	orchestrator := newOrchestrator(env, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	settings.SetLastDirectory(opts.dir)
	if !opts.audioOnly {
		settings.SetResolution(opts.resolution)
	}
	settings.SetCaptionLanguage(opts.language)

	log.Debug("starting", slog.String("version", version), slog.String("dir", opts.dir), slog.String("mode", mode.String()))

	reporter := ui.NewConsoleReporter()
	done := orchestrator.StartRun(ctx, pipeline.Request{
		URL:            opts.url,
		DestinationDir: opts.dir,
		Mode:           mode,
		WantCaptions:   opts.captions,
		LanguageCode:   opts.language,
	}, reporter.Status, reporter.Progress)

	result := <-done
	reporter.Summary(result)

	if opts.reveal && len(result.GetCompletedItems()) > 0 {
		if err := platform.OpenFolderInManager(opts.dir); err != nil {
			log.Warn("failed to open folder", slog.String("dir", opts.dir), slog.String("error", err.Error()))
		}
	}

	if result.HasErrors() {
		return ExitItemsFailed
	}
	return ExitOK
}

func parseFlags(args []string, settings *config.Settings, env config.Env) (options, error) {
	language := env.CaptionLanguage
	if language == "" {
		language = settings.CaptionLanguage()
	}

	var opts options
	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	fs.StringVar(&opts.url, "url", "", "video or playlist URL")
	fs.StringVar(&opts.dir, "dir", settings.DownloadDirectory(), "destination directory")
	fs.BoolVar(&opts.audioOnly, "audio", false, "download audio only and convert to mp3")
	fs.StringVar(&opts.resolution, "res", settings.Resolution(), "video resolution, e.g. 720p or 1080p")
	fs.BoolVar(&opts.captions, "captions", false, "also write captions as .srt")
	fs.StringVar(&opts.language, "lang", language, "caption language code")
	fs.BoolVar(&opts.reveal, "reveal", false, "open the destination folder when done")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", env.MetricsAddr, "serve Prometheus metrics on this address")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.url == "" && fs.NArg() > 0 {
		opts.url = fs.Arg(0)
	}
	if opts.url == "" && !opts.showVersion {
		return opts, errors.New("a URL is required: -url <video or playlist URL>")
	}
	return opts, nil
}

func newOrchestrator(env config.Env, m *metrics.Metrics, log *slog.Logger) *pipeline.Orchestrator {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = time.Duration(env.HTTPTimeoutSec) * time.Second

	client := media.NewClient(&http.Client{Transport: transport}, log)

	fetcher := download.NewService(client, log)
	fetcher.SetRateLimit(env.RateLimitKBps)
	fetcher.SetBytesCallback(m.AddBytes)

	muxer := compress.NewService(env.FFmpegPath, log)
	muxer.SetFailureCallback(m.MuxFailed)

	resolver := platform.NewResolver(platform.NewYTDLPLister())

	o := pipeline.New(resolver, client, fetcher, media.NewCaptionExtractor(client), muxer, log)
	o.SetMetrics(m)
	return o
}

func serveMetrics(addr string, m *metrics.Metrics, log *slog.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.NewRouter(m),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("metrics listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server failed", slog.String("error", err.Error()))
	}
}
