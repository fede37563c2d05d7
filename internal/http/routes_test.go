package httpx

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entragate/entragate/config"
	domainauth "github.com/entragate/entragate/internal/domain/auth"
)

func newTestRouter(t *testing.T, svc AuthServiceInterface) http.Handler {
	t.Helper()
	router, err := NewRouter(RouterServices{
		Auth:        svc,
		Scheme:      config.SchemeHTTPS,
		LandingPath: "/",
		Logger:      slog.Default(),
	})
	require.NoError(t, err)
	return router
}

func TestRouterPublicRoutes(t *testing.T) {
	router := newTestRouter(t, &fakeAuthService{})

	tests := []struct {
		path       string
		wantStatus int
	}{
		{path: "/", wantStatus: http.StatusOK},
		{path: "/healthz", wantStatus: http.StatusOK},
		{path: "/auth/ping", wantStatus: http.StatusOK},
		{path: "/auth/login", wantStatus: http.StatusTemporaryRedirect},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRouterGuardsProtectedRoutes(t *testing.T) {
	router := newTestRouter(t, &fakeAuthService{})

	for _, path := range []string{"/protected", "/userinfo", "/admin/"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, "/auth/login", w.Header().Get("Location"))
		})
	}
}

func TestRouterAdminRequiresAdminRole(t *testing.T) {
	reader := &domainauth.Claims{Name: "Reader", Roles: []string{"Portal.Read"}}
	router := newTestRouter(t, &fakeAuthService{claims: reader})

	r := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	r.AddCookie(sessionCookie("sess-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// /protected accepts the same user.
	r = httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(sessionCookie("sess-1"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterUnknownPathIs404(t *testing.T) {
	router := newTestRouter(t, &fakeAuthService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
