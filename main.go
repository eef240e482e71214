package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/smazurov/camgrid/cmd"
	"github.com/smazurov/camgrid/internal/api"
	"github.com/smazurov/camgrid/internal/config"
	"github.com/smazurov/camgrid/internal/discovery"
	"github.com/smazurov/camgrid/internal/events"
	"github.com/smazurov/camgrid/internal/logging"
	"github.com/smazurov/camgrid/internal/pipeline"
	"github.com/smazurov/camgrid/internal/render"
	"github.com/smazurov/camgrid/internal/streams"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"API port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Streams settings
	StreamsFile  string `help:"Stream definitions file" default:"streams.toml" toml:"streams.file" env:"STREAMS_FILE"`
	WatchStreams bool   `help:"Reload the streams file on change" default:"true" toml:"streams.watch" env:"STREAMS_WATCH"`
	Repeat       int    `help:"Register each URL this many times" default:"1" toml:"streams.repeat" env:"STREAMS_REPEAT"`

	// Render settings
	SurfaceWidth  int `help:"Render surface width" default:"1280" toml:"render.width" env:"RENDER_WIDTH"`
	SurfaceHeight int `help:"Render surface height" default:"720" toml:"render.height" env:"RENDER_HEIGHT"`
	RenderFPS     int `help:"Composite passes per second" default:"30" toml:"render.fps" env:"RENDER_FPS"`
	GridCapacity  int `help:"Maximum grid slots, 0 sizes from the initial stream count" default:"0" toml:"render.capacity" env:"RENDER_CAPACITY"`

	// Pipeline settings
	Backend string `help:"Decode backend (gstreamer, synthetic)" default:"gstreamer" toml:"pipeline.backend" env:"PIPELINE_BACKEND"`

	// Discovery settings
	DiscoveryEnabled  bool   `help:"Scan local subnets for RTSP devices" default:"true" toml:"discovery.enabled" env:"DISCOVERY_ENABLED"`
	DiscoveryInterval string `help:"Delay between scan cycles" default:"30s" toml:"discovery.scan_interval" env:"DISCOVERY_SCAN_INTERVAL"`
	DiscoveryAutoAdd  bool   `help:"Register discovered devices into free grid slots" default:"false" toml:"discovery.auto_add" env:"DISCOVERY_AUTO_ADD"`

	// Auth settings
	AuthUsername string `help:"Basic auth username, empty disables auth" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingRender    string `help:"Render logging level" default:"info" toml:"logging.render" env:"LOGGING_RENDER"`
	LoggingStreams   string `help:"Streams logging level" default:"info" toml:"logging.streams" env:"LOGGING_STREAMS"`
	LoggingDiscovery string `help:"Discovery logging level" default:"info" toml:"logging.discovery" env:"LOGGING_DISCOVERY"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	// Positional args are stream URLs; captured before humacli's own
	// Run handler fires.
	var urlArgs []string

	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"render":    opts.LoggingRender,
				"streams":   opts.LoggingStreams,
				"discovery": opts.LoggingDiscovery,
				"api":       opts.LoggingAPI,
			},
		})
		logger := logging.GetLogger("main")

		eventBus := events.New()

		// The initial stream set: CLI URLs first, then the streams
		// file, duplicates welcome (a URL can fill several cells).
		urls := make([]string, 0, len(urlArgs))
		for _, u := range urlArgs {
			for i := 0; i < max(opts.Repeat, 1); i++ {
				urls = append(urls, u)
			}
		}
		fileStreams, loadErr := config.LoadStreams(opts.StreamsFile)
		if loadErr != nil {
			logger.Warn("Failed to load streams file", "path", opts.StreamsFile, "error", loadErr)
		}
		for _, s := range fileStreams {
			urls = append(urls, s.URL)
		}

		capacity := opts.GridCapacity
		if capacity <= 0 {
			capacity = len(urls)
		}
		if capacity <= 0 {
			capacity = 1
		}

		device := render.NewSoftwareDevice(opts.SurfaceWidth, opts.SurfaceHeight)
		compositor := render.NewCompositor(device, capacity, eventBus, nil)
		aggregator := streams.NewAggregator(streams.Options{
			Compositor: compositor,
			Backend:    pipeline.Kind(opts.Backend),
			Bus:        eventBus,
		})

		scanInterval, parseErr := time.ParseDuration(opts.DiscoveryInterval)
		if parseErr != nil {
			scanInterval = 30 * time.Second
		}
		discoverySvc := discovery.NewService(discovery.Options{
			Bus:          eventBus,
			ScanInterval: scanInterval,
		})

		// Free grid cells can be filled by discovery as devices appear.
		if opts.DiscoveryAutoAdd {
			eventBus.Subscribe(func(e events.DeviceDiscoveredEvent) {
				if aggregator.Contains(e.URL) || aggregator.Count() >= compositor.Capacity() {
					return
				}
				slot := aggregator.Register(e.URL)
				logger.Info("Auto-registered discovered stream", "url", e.URL, "slot", slot)
			})
		}

		var watcher *config.Watcher[[]config.StreamEntry]
		if opts.WatchStreams {
			watcher = config.NewWatcher(opts.StreamsFile, config.LoadStreams, nil)
			watcher.OnReload(func(entries []config.StreamEntry) {
				for _, s := range entries {
					if aggregator.Contains(s.URL) {
						continue
					}
					if aggregator.Count() >= compositor.Capacity() {
						logger.Warn("Grid is full, ignoring new stream", "url", s.URL)
						continue
					}
					slot := aggregator.Register(s.URL)
					logger.Info("Registered stream from reloaded file", "url", s.URL, "slot", slot)
				}
			})
		}

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Aggregator:        aggregator,
			Discovery:         discoverySvc,
			Compositor:        compositor,
			PrometheusHandler: promhttp.Handler(),
		})

		renderCtx, stopRender := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			for _, url := range urls {
				aggregator.Register(url)
			}

			renderInterval := time.Second / time.Duration(max(opts.RenderFPS, 1))
			go compositor.Run(renderCtx, renderInterval)

			if opts.DiscoveryEnabled {
				discoverySvc.Start()
			}
			if watcher != nil {
				if watchErr := watcher.Start(); watchErr != nil {
					logger.Warn("Failed to watch streams file", "path", opts.StreamsFile, "error", watchErr)
				}
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if watcher != nil {
				if stopErr := watcher.Stop(); stopErr != nil {
					logger.Warn("Error stopping streams watcher", "error", stopErr)
				}
			}

			// Pipelines first so no frame callback fires into a stopped
			// compositor, then discovery, then the render loop.
			aggregator.StopAll()
			if opts.DiscoveryEnabled {
				discoverySvc.Stop()
			}
			stopRender()
		})
	})

	root := cli.Root()
	root.Use = "camgrid [rtsp-url ...]"
	root.Short = "Multi-camera RTSP grid viewer"
	root.Args = cobra.ArbitraryArgs
	root.PreRun = func(_ *cobra.Command, args []string) {
		urlArgs = args
	}

	root.AddCommand(cmd.CreateDiscoverCmd())

	cli.Run()
}
