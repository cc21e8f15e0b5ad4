package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/ombresaco/shortsmaker/internal/api"
	"github.com/ombresaco/shortsmaker/internal/cache"
	"github.com/ombresaco/shortsmaker/internal/config"
	"github.com/ombresaco/shortsmaker/internal/extract"
	"github.com/ombresaco/shortsmaker/internal/ffmpeg"
	"github.com/ombresaco/shortsmaker/internal/overlay"
	"github.com/ombresaco/shortsmaker/internal/queue"
	"github.com/ombresaco/shortsmaker/internal/source"
	"github.com/ombresaco/shortsmaker/internal/store"
	"github.com/ombresaco/shortsmaker/internal/upload"
	"github.com/ombresaco/shortsmaker/internal/venue"
	"github.com/ombresaco/shortsmaker/pkg/util"
)

// app holds the wired component graph for one command invocation.
type app struct {
	cfg          *config.Config
	store        *store.Store
	cache        *cache.Store
	queue        *queue.Manager
	orchestrator *venue.Orchestrator
	processor    *queue.Processor
	uploader     *upload.Uploader
	remote       *api.Client
}

func newApp(cfg *config.Config) (*app, error) {
	logger := log.Logger

	exec, err := ffmpeg.New(logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.Threads)
	if err != nil {
		return nil, err
	}

	cacheStore, err := cache.New(logger, cfg.Cache.Dir, cache.Options{
		MaxAge:   time.Duration(cfg.Cache.MaxAgeHours) * time.Hour,
		MaxBytes: cfg.Cache.MaxBytes,
	})
	if err != nil {
		return nil, err
	}

	resolvers := []source.Resolver{source.NewClientResolver()}
	for i, endpoint := range cfg.Source.AltEndpoints {
		resolvers = append(resolvers, source.NewAltResolver(fmt.Sprintf("alt-%d", i+1), endpoint, false))
	}
	chain := source.NewChain(logger, resolvers...)

	srcStore, err := source.NewStore(logger, cfg.Source.Dir, cfg.Source.YtDlpPath, chain)
	if err != nil {
		return nil, err
	}

	extractor := extract.New(logger, srcStore, exec, cfg.FFmpeg.CRF, cfg.FFmpeg.Preset)

	renderer, err := overlay.NewRenderer(logger, exec, cfg.TempDir)
	if err != nil {
		return nil, err
	}

	clientVenue, err := venue.NewClientVenue(logger, chain, srcStore, extractor, filepath.Join(cfg.TempDir, "client"))
	if err != nil {
		return nil, err
	}

	orchestrator, err := venue.NewOrchestrator(logger, venue.Options{
		Cache:        cacheStore,
		Overlay:      renderer,
		TempDir:      cfg.TempDir,
		Style:        styleFromConfig(cfg.Overlay),
		Timing:       overlay.DefaultTiming(),
		ServerCached: venue.NewServerVenue(logger, extractor, true),
		Client:       clientVenue,
		ServerFresh:  venue.NewServerVenue(logger, extractor, false),
	})
	if err != nil {
		return nil, err
	}

	if err := util.EnsureDir(filepath.Dir(cfg.StatePath)); err != nil {
		return nil, err
	}
	st, err := store.Open(logger, cfg.StatePath)
	if err != nil {
		return nil, err
	}

	manager := queue.NewManager(logger, st, st.LoadQueue())

	uploader := upload.New(logger, tokenSourceFromEnv())

	var remote *api.Client
	if cfg.Server.RemoteURL != "" {
		remote = api.NewClient(logger, cfg.Server.RemoteURL)
	}

	processorOpts := queue.ProcessorOptions{
		Manager:    manager,
		Segments:   orchestrator,
		Prefetch:   srcStore,
		Cache:      cacheStore,
		Workers:    cfg.Queue.Workers,
		GraceDelay: time.Duration(cfg.Queue.GraceDelaySecs) * time.Second,
	}
	if uploader.Authenticated() {
		processorOpts.Uploader = upload.NewJobUploader(uploader)
	}
	if remote != nil {
		processorOpts.Remote = remote
	}
	processor := queue.NewProcessor(logger, processorOpts)

	return &app{
		cfg:          cfg,
		store:        st,
		cache:        cacheStore,
		queue:        manager,
		orchestrator: orchestrator,
		processor:    processor,
		uploader:     uploader,
		remote:       remote,
	}, nil
}

func styleFromConfig(c config.OverlayConfig) overlay.Style {
	st := overlay.DefaultStyle()
	if c.FontSize > 0 {
		st.FontSize = c.FontSize
	}
	if c.FontColor != "" {
		st.FontColor = c.FontColor
	}
	if c.RectColor != "" {
		st.RectColor = c.RectColor
	}
	if c.RectPadding > 0 {
		st.RectPadding = c.RectPadding
	}
	if c.RectRadius > 0 {
		st.RectRadius = c.RectRadius
	}
	if c.Align != "" {
		st.Align = c.Align
	}
	return st
}

// tokenSourceFromEnv builds an OAuth token source from YOUTUBE_ACCESS_TOKEN,
// typically loaded from .env. Returns nil when unset; uploads then stay
// disabled and processed items rest at rendered.
func tokenSourceFromEnv() oauth2.TokenSource {
	token := os.Getenv("YOUTUBE_ACCESS_TOKEN")
	if token == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}
