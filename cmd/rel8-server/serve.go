package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Its-donkey/rel8/internal/backend"
	"github.com/Its-donkey/rel8/internal/config"
	"github.com/Its-donkey/rel8/internal/events"
	"github.com/Its-donkey/rel8/internal/linkpreview"
	"github.com/Its-donkey/rel8/internal/settings"
	uiserver "github.com/Its-donkey/rel8/internal/ui/server"
	"github.com/Its-donkey/rel8/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// previewHostInterval spaces link preview fetches to the same site.
const previewHostInterval = 500 * time.Millisecond

var serveFlags struct {
	listen     string
	templates  string
	assets     string
	data       string
	logLevel   string
	logFile    string
	seed       bool
	sequential bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the REL8 web server.

Configuration is read from the file given by --config, then REL8_* environment
variables. Flags set on the command line take precedence over both.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.listen, "listen", "", "address to serve the UI on")
	f.StringVar(&serveFlags.templates, "templates", "", "path to the html/template files")
	f.StringVar(&serveFlags.assets, "assets", "", "path where styles.css and wizard.js are located")
	f.StringVar(&serveFlags.data, "data", "", "directory for the settings file")
	f.StringVar(&serveFlags.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&serveFlags.logFile, "log-file", "", "also write logs to this rotating file")
	f.BoolVar(&serveFlags.seed, "seed", false, "use the in-memory backend with seeded accounts")
	f.BoolVar(&serveFlags.sequential, "sequential-wizard", false, "reject wizard jumps that skip a section")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveFlags.seed {
		// Load validates backend.url unless dev.seed is set.
		if err := os.Setenv("REL8_DEV_SEED", "true"); err != nil {
			return err
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	deps, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	err = uiserver.Run(ctx, uiserver.Options{
		Listen:           cfg.Server.Listen,
		TemplatesDir:     cfg.App.Templates,
		AssetsDir:        cfg.App.Assets,
		SiteName:         cfg.App.Name,
		Logger:           logger,
		Backend:          deps.backend,
		Settings:         deps.settings,
		Previews:         deps.previews,
		Events:           deps.events,
		SequentialWizard: serveFlags.sequential,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// newLogger writes to stdout and, when log.file is set, a rotating file.
func newLogger(cfg *config.Config) (*logging.Logger, func(), error) {
	level := logging.ParseLevel(cfg.Log.Level)
	if cfg.Log.File == "" {
		logger := logging.New(cfg.App.Name, level)
		return logger, func() { _ = logger.Sync() }, nil
	}
	file, err := logging.OpenRotatingFile(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxFiles)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.App.Name, level, os.Stdout, file)
	return logger, func() {
		_ = logger.Sync()
		_ = file.Close()
	}, nil
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Server.Listen = serveFlags.listen
	}
	if flags.Changed("templates") {
		cfg.App.Templates = serveFlags.templates
	}
	if flags.Changed("assets") {
		cfg.App.Assets = serveFlags.assets
	}
	if flags.Changed("data") {
		cfg.App.Data = serveFlags.data
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = serveFlags.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = serveFlags.logFile
	}
	if flags.Changed("seed") {
		cfg.Dev.Seed = serveFlags.seed
	}
}

// deps holds everything the server needs plus what must be closed on exit.
type deps struct {
	backend  backend.Client
	settings *settings.Service
	previews *linkpreview.Service
	events   events.Publisher
	closers  []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func buildDeps(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*deps, error) {
	d := &deps{}
	ok := false
	defer func() {
		if !ok {
			d.Close()
		}
	}()

	if cfg.Dev.Seed {
		mem, err := backend.NewSeededMemoryClient()
		if err != nil {
			return nil, fmt.Errorf("seed memory backend: %w", err)
		}
		logger.Warn("backend", "using seeded in-memory backend", map[string]any{"password": backend.SeedPassword})
		d.backend = mem
	} else {
		d.backend = backend.NewHTTPClient(cfg.Backend.URL, cfg.Backend.APIKey, cfg.Backend.Timeout, logger)
	}

	store, closeStore, err := openSettingsStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		d.closers = append(d.closers, closeStore)
	}
	svc, err := settings.NewService(ctx, store, settings.Settings{Theme: cfg.UI.Theme})
	if err != nil {
		return nil, err
	}
	d.settings = svc

	previewClient := linkpreview.Throttle(&http.Client{Timeout: cfg.Backend.Timeout}, previewHostInterval)
	d.previews = linkpreview.NewService(previewClient, logger)

	pub, closeEvents, err := openEvents(cfg, logger)
	if err != nil {
		return nil, err
	}
	d.events = pub
	d.closers = append(d.closers, closeEvents)

	ok = true
	return d, nil
}

func openSettingsStore(ctx context.Context, cfg *config.Config) (settings.Store, func(), error) {
	switch cfg.Settings.Driver {
	case config.SettingsDriverMemory:
		return settings.NewMemoryStore(nil), nil, nil
	case config.SettingsDriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Settings.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect settings database: %w", err)
		}
		return settings.NewPostgresStore(pool, cfg.Settings.Namespace), pool.Close, nil
	default:
		return settings.NewFileStore(filepath.Clean(cfg.App.Data)), nil, nil
	}
}

func openEvents(cfg *config.Config, logger *logging.Logger) (events.Publisher, func(), error) {
	switch {
	case cfg.Events.NATSURL != "":
		pub, err := events.Connect(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, logger)
		if err != nil {
			return nil, nil, err
		}
		return pub, func() { _ = pub.Close() }, nil
	case cfg.Events.Embedded:
		ns, err := events.StartEmbedded()
		if err != nil {
			return nil, nil, err
		}
		conn, err := events.ConnectInProcess(ns)
		if err != nil {
			ns.Shutdown()
			return nil, nil, err
		}
		if _, err := events.Subscribe(conn, cfg.Events.SubjectPrefix, events.LogSubscriber(logger)); err != nil {
			conn.Close()
			ns.Shutdown()
			return nil, nil, fmt.Errorf("subscribe to events: %w", err)
		}
		pub := events.NewNATSPublisher(conn, cfg.Events.SubjectPrefix, logger)
		return pub, func() {
			_ = pub.Close()
			ns.Shutdown()
			ns.WaitForShutdown()
		}, nil
	default:
		return events.Noop{}, func() {}, nil
	}
}
