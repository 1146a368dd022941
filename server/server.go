package server

import (
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"golang.org/x/time/rate"

	"github.com/sojenai/jenai-dashboard/backend"
	"github.com/sojenai/jenai-dashboard/config"
	"github.com/sojenai/jenai-dashboard/logstore"
	"github.com/sojenai/jenai-dashboard/session"
	"github.com/sojenai/jenai-dashboard/voice"
)

// Server serves the dashboard UI and the JSON API in front of the
// inference backend.
type Server struct {
	config   *config.Config
	client   *backend.Client
	synth    voice.Synthesizer
	sessions *session.Store
	logDB    logstore.InteractionDB
	limiter  *rate.Limiter
	uiFS     fs.FS

	reportErrors bool // send transport failures to Sentry
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client := backend.NewClient(cfg.APIBase)
	client.HealthTimeout = time.Duration(cfg.HealthTimeoutSeconds) * time.Second
	client.InferTimeout = time.Duration(cfg.InferTimeoutSeconds) * time.Second
	client.MitigateTimeout = time.Duration(cfg.MitigateTimeoutSeconds) * time.Second

	var synth voice.Synthesizer
	if cfg.Voice.Enabled {
		synth = voice.NewGoogleSynthesizer(cfg.Voice.Endpoint, cfg.Voice.Language)
	}

	var logDB logstore.InteractionDB
	if cfg.Database.Enabled {
		db, err := logstore.NewPostgresInteractionDB(logstore.DatabaseConfig{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			Database:     cfg.Database.Database,
			Username:     cfg.Database.Username,
			Password:     cfg.Database.Password,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  time.Duration(cfg.Database.MaxLifetime) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open interaction log database: %w", err)
		}
		logDB = db
	} else {
		logDB = logstore.NewInMemoryInteractionDB()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit.Enabled {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}

	return &Server{
		config:       cfg,
		client:       client,
		synth:        synth,
		sessions:     session.NewStore(),
		logDB:        logDB,
		limiter:      limiter,
		reportErrors: cfg.SentryDSN != "",
	}, nil
}

// NewServerWithEmbedded creates a new server instance serving the UI from
// an embedded filesystem instead of cfg.UIPath.
func NewServerWithEmbedded(cfg *config.Config, uiFS fs.FS) (*Server, error) {
	srv, err := NewServer(cfg)
	if err != nil {
		return nil, err
	}
	srv.uiFS = uiFS
	return srv, nil
}

// Handler builds the full route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthCheck)
	mux.HandleFunc("/api/backend/health", s.rateLimited(s.handleBackendHealth))
	mux.HandleFunc("/api/analyze", s.rateLimited(s.handleAnalyze))
	mux.HandleFunc("/api/mitigate", s.rateLimited(s.handleMitigate))
	mux.HandleFunc("/api/voice", s.rateLimited(s.handleVoice))
	mux.HandleFunc("/api/session", s.rateLimited(s.handleSession))
	mux.HandleFunc("/logs", s.handleLogs)

	// Serve UI files
	if s.uiFS != nil {
		// Embedded files live under "ui/dist"; serve them at "/".
		subFS, err := fs.Sub(s.uiFS, "ui/dist")
		if err != nil {
			log.Printf("Failed to create sub-filesystem: %v", err)
			mux.Handle("/", http.FileServer(http.FS(s.uiFS)))
		} else {
			mux.Handle("/", http.FileServer(http.FS(subFS)))
		}
	} else {
		mux.Handle("/", http.FileServer(http.Dir(s.config.UIPath)))
	}

	return mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting JenAI dashboard service on port %s", s.config.DashboardPort)
	log.Printf("Inference backend: %s", s.client.BaseURL())
	if s.synth != nil {
		log.Printf("Voice synthesis enabled (language: %s)", s.config.Voice.Language)
	} else {
		log.Println("Voice synthesis disabled")
	}
	if s.config.Database.Enabled {
		log.Println("Database interaction log enabled")
	} else {
		log.Println("Using in-memory interaction log")
	}

	server := &http.Server{
		Addr:        s.config.DashboardPort,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		// Write timeout must cover a full cold-start infer call.
		WriteTimeout: time.Duration(s.config.InferTimeoutSeconds+10) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// StartWithErrorHandling starts the server with proper error handling
func (s *Server) StartWithErrorHandling() {
	if err := s.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// Close closes the server and cleans up resources
func (s *Server) Close() error {
	if s.logDB != nil {
		return s.logDB.Close()
	}
	return nil
}

// healthCheck provides a simple health check endpoint
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	s.corsHandler(w, r)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"healthy","service":"JenAI Dashboard Service"}`)); err != nil {
		log.Printf("Failed to write health check response: %v", err)
	}
}

// rateLimited wraps an API handler with CORS, preflight handling, and the
// global token bucket.
func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.corsHandler(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests, slow down")
			return
		}
		next(w, r)
	}
}

// corsHandler adds CORS headers to the response
func (s *Server) corsHandler(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "false")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}

	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// reportError forwards a backend failure to Sentry when configured.
func (s *Server) reportError(err error) {
	if s.reportErrors {
		sentry.CaptureException(err)
	}
}
