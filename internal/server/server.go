package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"silverrail/internal/blobstore"
	"silverrail/internal/config"
	"silverrail/internal/lifecycle"
	"silverrail/internal/store"
)

const (
	apiTokenEnvKey    = "SILVERRAIL_API_TOKEN"
	allowRemoteEnvKey = "SILVERRAIL_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	rehashConcurrency = 1
)

// Backend is the storage the server needs.
type Backend interface {
	store.CatalogueStore
	store.AuthStore
}

// Options configures a Server.
type Options struct {
	Addr      string
	DBPath    string
	MediaRoot string
	Uploads   config.UploadConfig
	Throttle  config.ThrottleConfig
	// MetricsEnabled mounts GET /metrics.
	MetricsEnabled bool
	// Registry receives every collector. A fresh registry is used when nil.
	Registry *prometheus.Registry
	Logger   *slog.Logger
	// APIToken grants admin access as a bearer token. Read from
	// SILVERRAIL_API_TOKEN when empty.
	APIToken string
}

// Server wraps HTTP handlers for the silverrail API.
type Server struct {
	addr      string
	dbPath    string
	mediaRoot string
	store     Backend
	blobs     blobstore.BlobStore
	logger    *slog.Logger
	apiToken  string

	uploads        config.UploadConfig
	allowedMedia   map[string]struct{}
	metricsEnabled bool
	registry       *prometheus.Registry
	httpMetrics    *httpMetrics

	files *lifecycle.Manager

	characters  *CharacterService
	abilities   *AbilityService
	lightcones  *LightconeService
	relics      *RelicService
	teams       *TeamService
	stats       *StatService
	rehash      *RehashService
	authService *AuthService

	anonLimiter         *keyedLimiter
	userLimiter         *keyedLimiter
	registrationLimiter *keyedLimiter
	loginLimiter        *loginRateLimiter
	rehashLimiter       chan struct{}
}

// New creates a server over backend and blobs and registers every record
// type carrying attachments with the file lifecycle manager.
func New(backend Backend, blobs blobstore.BlobStore, opts Options) (*Server, error) {
	if backend == nil {
		return nil, fmt.Errorf("store is required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	uploads := opts.Uploads
	if uploads.MaxUploadBytes <= 0 {
		uploads.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	if uploads.MultipartMaxMemory <= 0 {
		uploads.MultipartMaxMemory = config.DefaultMultipartMaxMemory
	}
	allowed := make(map[string]struct{}, len(uploads.AllowedMediaTypes))
	for _, mediaType := range uploads.AllowedMediaTypes {
		allowed[strings.ToLower(strings.TrimSpace(mediaType))] = struct{}{}
	}
	if len(allowed) == 0 {
		for _, mediaType := range config.Default().Uploads.AllowedMediaTypes {
			allowed[mediaType] = struct{}{}
		}
	}

	apiToken := strings.TrimSpace(opts.APIToken)
	if apiToken == "" {
		apiToken = strings.TrimSpace(os.Getenv(apiTokenEnvKey))
	}

	files := lifecycle.NewManager(blobs, backend, logger, lifecycle.NewMetrics(registry))
	bindings, err := registerRecordTypes(files, backend)
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:           opts.Addr,
		dbPath:         opts.DBPath,
		mediaRoot:      opts.MediaRoot,
		store:          backend,
		blobs:          blobs,
		logger:         logger,
		apiToken:       apiToken,
		uploads:        uploads,
		allowedMedia:   allowed,
		metricsEnabled: opts.MetricsEnabled,
		registry:       registry,
		httpMetrics:    newHTTPMetrics(registry),
		files:          files,
		authService:    NewAuthService(backend),

		anonLimiter:         newDailyLimiter(opts.Throttle.AnonPerDay),
		userLimiter:         newDailyLimiter(opts.Throttle.UserPerDay),
		registrationLimiter: newDailyLimiter(opts.Throttle.RegistrationPerDay),
		loginLimiter:        newLoginRateLimiter(loginMaxFailures, loginFailureWindow, loginBlockDuration),
		rehashLimiter:       make(chan struct{}, rehashConcurrency),
	}

	attachments := newAttachmentHelper(blobs)
	s.lightcones = NewLightconeService(backend, attachments, bindings.lightcones)
	s.abilities = NewAbilityService(backend, attachments, bindings.abilities)
	s.characters = NewCharacterService(backend, attachments, bindings.characters, bindings.abilities)
	s.relics = NewRelicService(backend, attachments, bindings.relics)
	s.teams = NewTeamService(backend)
	s.stats = NewStatService(backend)
	s.rehash = NewRehashService(backend, bindings, logger)

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.routes()
	h = s.withThrottle(h)
	h = s.withAuth(h)
	h = s.withRequestLogging(h)
	h = s.withMetrics(h)
	h = s.withRequestID(h)
	return h
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log().Info("starting server", "addr", s.addr, "media_root", s.mediaRoot, "record_types", s.files.RegisteredTypes())
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return server.ListenAndServe()
}

// Rehash exposes the rehash pass to in-process callers such as the CLI.
func (s *Server) Rehash() *RehashService {
	return s.rehash
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) acquireLimiter(limiter chan struct{}, w http.ResponseWriter, r *http.Request, name string) bool {
	if limiter == nil {
		return true
	}
	select {
	case limiter <- struct{}{}:
		return true
	default:
		err := apiError{
			status:  http.StatusTooManyRequests,
			code:    "resource_exhausted",
			errCode: ErrCodeResourceExhausted,
			err:     fmt.Errorf("too many concurrent %s requests", name),
		}
		s.writeErrorReq(w, r, http.StatusTooManyRequests, err)
		return false
	}
}

func (s *Server) releaseLimiter(limiter chan struct{}) {
	if limiter == nil {
		return
	}
	select {
	case <-limiter:
	default:
	}
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
