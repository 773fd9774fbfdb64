package server

import (
	"fmt"
	"html/template"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/jrsteele09/engine-dashboard/apiclient"
	"github.com/jrsteele09/engine-dashboard/cyclegen"
	"github.com/jrsteele09/engine-dashboard/internal/config"
	"github.com/jrsteele09/engine-dashboard/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	appName  string
	mux      *http.ServeMux
	routes   []string
	sessions *session.Manager
	api      *apiclient.Client
	rng      cyclegen.Rand
	logger   zerolog.Logger

	errorPage   *template.Template
	loadingPage *template.Template
}

type Option func(*Server)

// WithRand sets the random source used by cycle generation
func WithRand(r cyclegen.Rand) Option {
	return func(s *Server) {
		s.rng = r
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// randFunc adapts the package level math/rand/v2 source, which is safe for
// concurrent use
type randFunc func() float64

func (f randFunc) Float64() float64 { return f() }

func New(cfg config.EnvConfig, sessions *session.Manager, api *apiclient.Client, opts ...Option) (*Server, error) {
	if sessions == nil || api == nil {
		return nil, fmt.Errorf("[Server New] session manager and api client are required")
	}
	s := &Server{
		env:      cfg.GetEnv(),
		appName:  cfg.GetAppName(),
		mux:      http.NewServeMux(),
		sessions: sessions,
		api:      api,
		rng:      randFunc(rand.Float64),
		logger:   log.Logger,

		errorPage:   mustParseTemplate("error.html"),
		loadingPage: mustParseTemplate("loading.html"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "server").Logger()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		s.logger.Debug().Msg(colourMethod(method) + " " + path)
	}
}
