package api

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
)

// Role is the access level a credential grants.
type Role int

const (
	// RoleViewer reads audit results: status, run history, findings.
	RoleViewer Role = iota
	// RoleAuditor additionally submits audit runs.
	RoleAuditor
)

// Credential is one basic-auth account.
type Credential struct {
	Password string
	Role     Role
}

// AuthConfig holds API credentials. Every credential carries a role:
// submitting an audit run requires RoleAuditor, the read-only result
// surface accepts any authenticated credential.
type AuthConfig struct {
	Users   map[string]Credential // username -> password + role
	APIKeys map[string]Role       // Bearer / X-API-Key token -> role
}

// requiredRole returns the role a request needs. Audit submission mutates
// run history and counters; everything else on the API is read-only.
func requiredRole(r *http.Request) Role {
	if r.Method == http.MethodPost && r.URL.Path == "/api/v1/audit" {
		return RoleAuditor
	}
	return RoleViewer
}

// authMiddleware wraps an http.Handler with Basic Auth / Bearer / X-API-Key
// checks and per-route role enforcement. Requests to /health and /metrics
// bypass authentication.
func authMiddleware(cfg AuthConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth for health and metrics endpoints
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		role, ok := resolveRole(r, cfg)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="confaudit API"`)
			writeJSON(w, http.StatusUnauthorized, Response{
				Success: false,
				Error:   "authentication required",
			})
			return
		}
		if role < requiredRole(r) {
			writeError(w, http.StatusForbidden, "audit submission requires an auditor credential")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// resolveRole validates the request's credential and returns its role.
func resolveRole(r *http.Request, cfg AuthConfig) (Role, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			role, valid := cfg.APIKeys[token]
			return role, valid
		}
		if payload, ok := strings.CutPrefix(auth, "Basic "); ok {
			if role, valid := resolveBasic(payload, cfg.Users); valid {
				return role, true
			}
		}
	}

	if key := r.Header.Get("X-API-Key"); key != "" {
		role, valid := cfg.APIKeys[key]
		return role, valid
	}

	return 0, false
}

func resolveBasic(payload string, users map[string]Credential) (Role, bool) {
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return 0, false
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return 0, false
	}
	cred, exists := users[user]
	if !exists {
		return 0, false
	}
	if subtle.ConstantTimeCompare([]byte(pass), []byte(cred.Password)) != 1 {
		return 0, false
	}
	return cred.Role, true
}
