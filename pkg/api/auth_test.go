package api

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestAuthMiddleware(t *testing.T) {
	cfg := AuthConfig{
		Users: map[string]Credential{
			"auditor": {Password: "secret123", Role: RoleAuditor},
			"viewer":  {Password: "readonly", Role: RoleViewer},
		},
		APIKeys: map[string]Role{
			"tok-audit-123": RoleAuditor,
			"tok-view-456":  RoleViewer,
		},
	}

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := authMiddleware(cfg, ok)

	tests := []struct {
		name   string
		method string
		path   string
		header map[string]string
		want   int
	}{
		{
			name: "health bypass",
			path: "/health",
			want: http.StatusOK,
		},
		{
			name: "metrics bypass",
			path: "/metrics",
			want: http.StatusOK,
		},
		{
			name: "no auth",
			path: "/api/v1/status",
			want: http.StatusUnauthorized,
		},
		{
			name:   "valid basic auth",
			path:   "/api/v1/status",
			header: map[string]string{"Authorization": basicAuth("auditor", "secret123")},
			want:   http.StatusOK,
		},
		{
			name:   "invalid basic auth password",
			path:   "/api/v1/status",
			header: map[string]string{"Authorization": basicAuth("auditor", "wrong")},
			want:   http.StatusUnauthorized,
		},
		{
			name:   "invalid basic auth user",
			path:   "/api/v1/status",
			header: map[string]string{"Authorization": basicAuth("nobody", "secret123")},
			want:   http.StatusUnauthorized,
		},
		{
			name:   "valid bearer token",
			path:   "/api/v1/status",
			header: map[string]string{"Authorization": "Bearer tok-audit-123"},
			want:   http.StatusOK,
		},
		{
			name:   "invalid bearer token",
			path:   "/api/v1/status",
			header: map[string]string{"Authorization": "Bearer bad-token"},
			want:   http.StatusUnauthorized,
		},
		{
			name:   "valid X-API-Key",
			path:   "/api/v1/status",
			header: map[string]string{"X-API-Key": "tok-audit-123"},
			want:   http.StatusOK,
		},
		{
			name:   "invalid X-API-Key",
			path:   "/api/v1/status",
			header: map[string]string{"X-API-Key": "bad-key"},
			want:   http.StatusUnauthorized,
		},
		{
			name:   "malformed basic auth",
			path:   "/api/v1/status",
			header: map[string]string{"Authorization": "Basic !!!notbase64"},
			want:   http.StatusUnauthorized,
		},
		{
			name:   "viewer key reads runs",
			path:   "/api/v1/runs",
			header: map[string]string{"X-API-Key": "tok-view-456"},
			want:   http.StatusOK,
		},
		{
			name:   "viewer key cannot submit audit",
			method: "POST",
			path:   "/api/v1/audit",
			header: map[string]string{"X-API-Key": "tok-view-456"},
			want:   http.StatusForbidden,
		},
		{
			name:   "viewer basic auth cannot submit audit",
			method: "POST",
			path:   "/api/v1/audit",
			header: map[string]string{"Authorization": basicAuth("viewer", "readonly")},
			want:   http.StatusForbidden,
		},
		{
			name:   "auditor key submits audit",
			method: "POST",
			path:   "/api/v1/audit",
			header: map[string]string{"Authorization": "Bearer tok-audit-123"},
			want:   http.StatusOK,
		},
		{
			name:   "unauthenticated audit submission is 401 not 403",
			method: "POST",
			path:   "/api/v1/audit",
			want:   http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = "GET"
			}
			req := httptest.NewRequest(method, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("got status %d, want %d", w.Code, tt.want)
			}

			if tt.want == http.StatusUnauthorized {
				if wa := w.Header().Get("WWW-Authenticate"); wa == "" {
					t.Error("expected WWW-Authenticate header on 401")
				}
			}
		})
	}
}

func TestRequiredRole(t *testing.T) {
	post := httptest.NewRequest("POST", "/api/v1/audit", nil)
	if requiredRole(post) != RoleAuditor {
		t.Error("audit submission should require auditor role")
	}
	get := httptest.NewRequest("GET", "/api/v1/runs", nil)
	if requiredRole(get) != RoleViewer {
		t.Error("result reads should only require viewer role")
	}
}
