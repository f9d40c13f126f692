package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Its-donkey/rel8/internal/backend"
	"github.com/Its-donkey/rel8/internal/events"
	"github.com/Its-donkey/rel8/internal/guard"
	"github.com/Its-donkey/rel8/internal/linkpreview"
	"github.com/Its-donkey/rel8/logging"
)

// Options configures the UI HTTP server.
type Options struct {
	Listen       string
	TemplatesDir string
	AssetsDir    string
	SiteName     string
	Logger       *logging.Logger
	Templates    map[string]*template.Template

	Backend backend.Client
	// Sessions defaults to a cookie session manager over Backend.
	Sessions SessionManager
	Settings SettingsService
	Previews PreviewFetcher
	Events   events.Publisher
	// SequentialWizard rejects wizard tab jumps that skip a section.
	SequentialWizard bool
}

// SessionManager resolves and stores the signed-in session in cookies.
type SessionManager interface {
	guard.Resolver
	Start(w http.ResponseWriter, r *http.Request, sess backend.Session)
	Clear(w http.ResponseWriter)
	FlagRoleRefresh(w http.ResponseWriter, r *http.Request)
}

// SettingsService owns the site theme.
type SettingsService interface {
	Theme() string
	SetTheme(ctx context.Context, theme string) error
}

// PreviewFetcher is implemented by linkpreview.Service.
type PreviewFetcher interface {
	Fetch(ctx context.Context, url string) (*linkpreview.Preview, error)
}

type server struct {
	assetsDir        string
	stylesPath       string
	templates        map[string]*template.Template
	currentYear      int
	siteName         string
	backend          backend.Client
	sessions         SessionManager
	settings         SettingsService
	previews         PreviewFetcher
	events           events.Publisher
	logger           *logging.Logger
	sequentialWizard bool
}

// Run starts the UI HTTP server and blocks until ctx is cancelled or the
// listener fails.
func Run(ctx context.Context, opts Options) error {
	opts = applyDefaults(opts)
	if opts.Backend == nil {
		return errors.New("server: backend client is required")
	}
	if opts.Settings == nil {
		return errors.New("server: settings service is required")
	}

	tmpl := opts.Templates
	if tmpl == nil {
		templateRoot, err := filepath.Abs(opts.TemplatesDir)
		if err != nil {
			return fmt.Errorf("resolve templates dir: %w", err)
		}
		loaded, err := loadTemplates(templateRoot)
		if err != nil {
			return fmt.Errorf("load templates: %w", err)
		}
		tmpl = loaded
	}

	assetsPath, err := filepath.Abs(opts.AssetsDir)
	if err != nil {
		return fmt.Errorf("resolve assets dir: %w", err)
	}

	srv := newServer(opts, tmpl, assetsPath)

	httpServer := &http.Server{
		Addr:              opts.Listen,
		Handler:           logging.WithHTTPLogging(srv.routes(), srv.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	srv.logger.Info("server", "serving UI", map[string]any{
		"site":   srv.siteName,
		"listen": "http://" + opts.Listen,
	})

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

func newServer(opts Options, tmpl map[string]*template.Template, assetsPath string) *server {
	return &server{
		assetsDir:        assetsPath,
		stylesPath:       "/styles.css",
		templates:        tmpl,
		currentYear:      time.Now().Year(),
		siteName:         opts.SiteName,
		backend:          opts.Backend,
		sessions:         opts.Sessions,
		settings:         opts.Settings,
		previews:         opts.Previews,
		events:           opts.Events,
		logger:           opts.Logger,
		sequentialWizard: opts.SequentialWizard,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/", s.withOptionalUser(s.handleHome))
	mux.Handle("/auth", s.withOptionalUser(s.handleAuth))
	mux.HandleFunc("/auth/logout", s.handleLogout)
	mux.Handle("GET /i/{code}", s.withOptionalUser(s.handleInvite))
	mux.Handle("/invite/", guard.InviteRedirect())
	mux.Handle("/styles.css", s.assetHandler("styles.css", "text/css"))
	mux.Handle("/wizard.js", s.assetHandler("wizard.js", "application/javascript"))
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.Handle("/organizer", s.protect(guard.AdminOrOrganizer, s.handleOrganizer))
	mux.Handle("/rel8", s.protect(guard.AdminOrOrganizer, s.handleRel8))
	mux.Handle("/modul8", s.protect(guard.AdminOrOrganizer, s.handleModul8))
	mux.Handle("POST /modul8/requests/{id}/assign", s.protect(guard.AdminOrOrganizer, s.handleAssignProvider))
	mux.Handle("/communities/new", s.protect(guard.AdminOrOrganizer, s.handleCommunityWizard))
	mux.Handle("/communities/preview", s.protect(guard.AdminOrOrganizer, s.handleLinkPreview))

	mux.Handle("/admin", s.protect(guard.AdminOnly, s.handleAdmin))
	mux.Handle("/admin/users/role", s.protect(guard.AdminOnly, s.handleAdminUserRole))
	mux.Handle("/admin/settings", s.protect(guard.AdminOnly, s.handleAdminSettings))
	mux.Handle("/admin/test-service", s.protect(guard.AdminOnly, s.handleAdminTestService))

	mux.Handle("/profile/edit", s.protect(guard.SignedIn, s.handleProfileEdit))
	mux.Handle("/settings/account", s.protect(guard.SignedIn, s.handleAccountSettings))

	return mux
}

func (s *server) protect(policy guard.Policy, h http.HandlerFunc) http.Handler {
	return guard.Protect(s.sessions, policy, http.HandlerFunc(s.handleLoading), h, s.logger)
}

// withOptionalUser attaches the signed-in user, if any, for public pages.
func (s *server) withOptionalUser(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, err := s.sessions.Resolve(w, r)
		if err != nil {
			s.logger.Warn("session", "resolve session failed", map[string]any{
				"path":  r.URL.Path,
				"error": err.Error(),
			})
		}
		if state.Loading {
			s.handleLoading(w, r)
			return
		}
		if state.User != nil {
			r = r.WithContext(guard.WithUser(r.Context(), state.User))
		}
		h(w, r)
	})
}

func (s *server) assetHandler(name, contentType string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=300")
		http.ServeFile(w, r, filepath.Join(s.assetsDir, name))
	})
}

// backendContext scopes a backend call to the request, the caller's access
// token and a bounded timeout.
func (s *server) backendContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := backend.WithAccessToken(r.Context(), accessToken(r))
	return context.WithTimeout(ctx, 12*time.Second)
}

func (s *server) publish(ctx context.Context, eventType, actorID string, payload any) {
	if s.events == nil {
		return
	}
	ev, err := events.New(eventType, actorID, payload)
	if err == nil {
		err = s.events.Publish(ctx, ev)
	}
	if err != nil {
		s.logger.Error("events", "publish event", err, map[string]any{"type": eventType})
	}
}
