// Package apifake is an in-memory stand-in for the engine-maintenance REST API,
// served over httptest for tests.
package apifake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/engine-dashboard/apiclient"
)

// RecordedRequest is what the fake saw of a request
type RecordedRequest struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
}

// Server is the fake API. Its URL already includes the /api prefix.
type Server struct {
	srv    *httptest.Server
	secret []byte
	ttl    time.Duration

	mu          sync.Mutex
	accounts    map[string]*account
	engines     map[int]*engine
	maintenance map[int]*apiclient.Maintenance
	alerts      map[int]*alert
	revoked     map[string]struct{}
	requests    []RecordedRequest
	nextID      int
	loginHook   func()
}

type Option func(*Server)

// WithTokenTTL sets the lifetime of issued access tokens
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) {
		s.ttl = d
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		secret:      []byte("apifake-signing-secret"),
		ttl:         time.Hour,
		accounts:    map[string]*account{},
		engines:     map[int]*engine{},
		maintenance: map[int]*apiclient.Maintenance{},
		alerts:      map[int]*alert{},
		revoked:     map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = httptest.NewServer(s.router())
	return s
}

func (s *Server) URL() string {
	return s.srv.URL + "/api"
}

func (s *Server) Close() {
	s.srv.Close()
}

// Requests returns every request received so far
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// SetLoginHook runs h after credentials are checked and before the login reply is
// written
func (s *Server) SetLoginHook(h func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginHook = h
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(s.requireJWT)
	protected.HandleFunc("/engines", s.handleListEngines).Methods(http.MethodGet)
	protected.HandleFunc("/engines", s.handleCreateEngine).Methods(http.MethodPost)
	protected.HandleFunc("/engines/{id:[0-9]+}", s.handleGetEngine).Methods(http.MethodGet)
	protected.HandleFunc("/engines/{id:[0-9]+}", s.handleUpdateEngine).Methods(http.MethodPut)
	protected.HandleFunc("/engines/{id:[0-9]+}", s.handleDeleteEngine).Methods(http.MethodDelete)
	protected.HandleFunc("/engines/{id:[0-9]+}/cycles", s.handleAddCycle).Methods(http.MethodPost)
	protected.HandleFunc("/maintenance", s.handleListMaintenance).Methods(http.MethodGet)
	protected.HandleFunc("/maintenance", s.handleCreateMaintenance).Methods(http.MethodPost)
	protected.HandleFunc("/maintenance/{id:[0-9]+}", s.handleGetMaintenance).Methods(http.MethodGet)
	protected.HandleFunc("/maintenance/{id:[0-9]+}", s.handleUpdateMaintenance).Methods(http.MethodPut)
	protected.HandleFunc("/maintenance/{id:[0-9]+}", s.handleDeleteMaintenance).Methods(http.MethodDelete)
	protected.HandleFunc("/alerts", s.handleListAlerts).Methods(http.MethodGet)
	protected.HandleFunc("/alerts/{id:[0-9]+}", s.handleUpdateAlert).Methods(http.MethodPut)
	protected.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get(apiclient.RequestIDHeader),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// id returns the next identifier; callers hold s.mu
func (s *Server) id() int {
	s.nextID++
	return s.nextID
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

func now() apiclient.Time {
	return apiclient.Time{Time: time.Now().UTC().Truncate(time.Second)}
}
