package apifake

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/engine-dashboard/apiclient"
	"github.com/jrsteele09/engine-dashboard/users"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	user         users.User
	passwordHash []byte
}

type claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type identityKey struct{}

// AddUser creates an account and returns its public record
func (s *Server) AddUser(username, email, password string, role users.Role) users.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("apifake: hashing password: %v", err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := users.User{ID: s.id(), Username: username, Email: email, Role: role}
	s.accounts[username] = &account{user: u, passwordHash: hash}
	return u
}

// IssueToken signs an access token for user that expires after ttl. A negative ttl
// gives an already expired token.
func (s *Server) IssueToken(u users.User, ttl time.Duration) string {
	issued := time.Now()
	c := claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("apifake: signing token: %v", err))
	}
	return signed
}

// Revoke makes every later request carrying token fail with 401
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = struct{}{}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req apiclient.LoginRequest
	if err := decodeBody(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[req.Username]
	hook := s.loginHook
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if hook != nil {
		hook()
	}

	writeJSON(w, http.StatusOK, apiclient.LoginResponse{
		Message:     "Login successful",
		AccessToken: s.IssueToken(acc.user, s.ttl),
		User:        acc.user,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req apiclient.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	for field, value := range map[string]string{"username": req.Username, "email": req.Email, "password": req.Password} {
		if value == "" {
			writeError(w, http.StatusBadRequest, "Missing required field: "+field)
			return
		}
	}
	role := req.Role
	if role == "" {
		role = users.DefaultRole
	}

	s.mu.Lock()
	_, taken := s.accounts[req.Username]
	emailTaken := false
	for _, acc := range s.accounts {
		if acc.user.Email == req.Email {
			emailTaken = true
		}
	}
	s.mu.Unlock()

	switch {
	case taken:
		writeError(w, http.StatusConflict, "Username already exists")
		return
	case emailTaken:
		writeError(w, http.StatusConflict, "Email already exists")
		return
	}

	u := s.AddUser(req.Username, req.Email, req.Password, role)
	writeJSON(w, http.StatusCreated, apiclient.RegisterResponse{Message: "User created successfully", User: u})
}

func (s *Server) requireJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || raw == "" {
			writeMsg(w, http.StatusUnauthorized, "Missing Authorization Header")
			return
		}

		s.mu.Lock()
		_, revoked := s.revoked[raw]
		s.mu.Unlock()
		if revoked {
			writeMsg(w, http.StatusUnauthorized, "Token has been revoked")
			return
		}

		var c claims
		_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeMsg(w, http.StatusUnauthorized, "Token has expired")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, c)))
	})
}

func identity(r *http.Request) claims {
	c, _ := r.Context().Value(identityKey{}).(claims)
	return c
}

func requireRole(w http.ResponseWriter, r *http.Request, action string, roles ...users.Role) bool {
	c := identity(r)
	for _, role := range roles {
		if c.Role == string(role) {
			return true
		}
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	writeError(w, http.StatusForbidden, fmt.Sprintf("Unauthorized. Only %s can %s", strings.Join(names, " or "), action))
	return false
}
