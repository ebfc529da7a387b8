package server

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"vitrine/internal/admin"
	"vitrine/internal/auth"
	"vitrine/internal/cache"
	"vitrine/internal/config"
	"vitrine/internal/metadata"
	"vitrine/internal/player"
	"vitrine/internal/storage"
	"vitrine/internal/store"

	"github.com/sirupsen/logrus"
)

// Server is the bio-link site: the public profile page and player
// mirror, the admin editing API, and the media it references.
type Server struct {
	config       *config.Config
	repo         store.Repository
	cache        *cache.Snapshot
	storage      storage.Storage
	local        *storage.Local // nil when the s3 backend is active
	assets       *storage.Index // nil when the s3 backend is active
	authService  *auth.Service
	editSessions *admin.Manager
	extractor    *metadata.Extractor
	engine       *player.RemoteEngine
	transport    *player.Transport
	gate         *player.Gate
	logger       *logrus.Logger

	httpServer *http.Server
}

// NewServer wires the site's components together.
func NewServer(cfg *config.Config, repo store.Repository, snap *cache.Snapshot, logger *logrus.Logger) (*Server, error) {
	if logger == nil {
		logger = logrus.New()
	}

	authService, err := auth.NewService(&cfg.Auth)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:       cfg,
		repo:         repo,
		cache:        snap,
		authService:  authService,
		editSessions: admin.NewManager(),
		extractor:    metadata.NewExtractor([]string{".mp3", ".flac", ".wav"}, logger),
		engine:       player.NewRemoteEngine(0.3), // matches the page's initial volume
		transport:    player.NewTransport(logger),
		logger:       logger,
	}

	if err := s.setupStorage(); err != nil {
		return nil, err
	}

	// Revealing the gate is the one user gesture allowed to start
	// playback: attach the transport and request play.
	s.gate = player.NewGate(func() {
		if err := s.transport.Attach(s.engine); err != nil {
			s.logger.WithError(err).Debug("Transport already attached")
		}
		s.transport.TogglePlay()
	})

	return s, nil
}

// setupStorage selects the configured blob backend. The local backend
// also gets a watched asset index for the admin panel.
func (s *Server) setupStorage() error {
	switch s.config.Storage.Backend {
	case "s3":
		st, err := storage.NewS3(context.Background(), s.config.Storage.S3)
		if err != nil {
			return err
		}
		s.storage = st
	default:
		local, err := storage.NewLocal(s.config.Storage.MediaDir, s.config.Server.PublicBaseURL, s.logger)
		if err != nil {
			return err
		}
		s.storage = local
		s.local = local
		if s.config.Storage.WatchForChanges {
			s.assets = storage.NewIndex(local, s.logger)
		}
	}
	return nil
}

// Handler builds the routing table wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public pages and assets
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/login", s.handleLoginPage)
	mux.HandleFunc("/admin", s.handleAdminPage)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.config.Server.StaticDir))))
	if s.local != nil {
		mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(s.local.Root()))))
	}
	mux.HandleFunc("/health", s.handleHealthCheck)

	// Public profile API
	mux.HandleFunc("/api/profile", s.handleGetProfile)
	mux.HandleFunc("/api/gate/enter", s.handleGateEnter)

	// Player mirror
	mux.HandleFunc("/api/player/state", s.handlePlayerState)
	mux.HandleFunc("/api/player/event", s.handlePlayerEvent)
	mux.HandleFunc("/api/player/commands", s.handlePlayerCommands)
	mux.HandleFunc("/api/player/toggle", s.handlePlayerToggle)
	mux.HandleFunc("/api/player/seek", s.handlePlayerSeek)
	mux.HandleFunc("/api/player/volume", s.handlePlayerVolume)
	mux.HandleFunc("/api/player/mute", s.handlePlayerMute)

	// Auth
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/logout", s.handleAuthLogout)

	// Admin editing API (session-gated by authMiddleware)
	mux.HandleFunc("/api/admin/profile", s.handleAdminProfile)
	mux.HandleFunc("/api/admin/links", s.handleAdminLinks)
	mux.HandleFunc("/api/admin/links/", s.handleAdminLink)
	mux.HandleFunc("/api/admin/upload/", s.handleAdminUpload)
	mux.HandleFunc("/api/admin/assets", s.handleAdminAssets)

	var handler http.Handler = mux
	handler = s.authMiddleware(handler)
	handler = s.corsMiddleware(handler)
	handler = s.requestLoggingMiddleware(handler)
	return handler
}

// Start runs the HTTP server until it fails or Shutdown is called.
func (s *Server) Start() error {
	if s.assets != nil {
		if err := s.assets.Start(); err != nil {
			s.logger.WithError(err).Warn("Could not start asset watcher")
			s.assets = nil
		}
	}

	s.httpServer = &http.Server{
		Addr:        s.config.GetAddress(),
		Handler:     s.Handler(),
		ReadTimeout: time.Duration(s.config.Server.ReadTimeout) * time.Second,
	}

	s.logger.WithFields(logrus.Fields{
		"address":    s.config.GetAddress(),
		"static_dir": s.config.Server.StaticDir,
	}).Info("Vitrine server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) {
	s.logger.Info("Shutting down server...")

	if s.assets != nil {
		s.assets.Stop()
	}
	s.cache.Close()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.WithError(err).Warn("HTTP server shutdown failed")
		}
	}

	s.logger.Info("Server shutdown complete")
}

// handleHome serves the public profile page.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.config.Server.StaticDir, "index.html"))
}

// handleLoginPage serves the admin login form.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// An already authenticated admin goes straight to the panel
	if _, valid := s.authService.GetSessionManager().GetSessionFromRequest(r); valid {
		http.Redirect(w, r, "/admin", http.StatusTemporaryRedirect)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.config.Server.StaticDir, "login.html"))
}

// handleAdminPage serves the admin panel shell; the auth middleware has
// already gated the request.
func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.config.Server.StaticDir, "admin.html"))
}
