package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	domainauth "github.com/entragate/entragate/internal/domain/auth"
)

// GraphClient is the slice of the authenticated API client the userinfo
// page uses.
type GraphClient interface {
	Get(ctx context.Context, sessionID, url string) (*http.Response, error)
}

// PageHandlers serves the illustrative application pages. They are glue
// around the auth core: the guard middleware decides who gets in, these
// just render what the claims say.
type PageHandlers struct {
	Renderer     *TemplateRenderer
	Graph        GraphClient
	GraphEnabled bool
	GraphMeURL   string
	Logger       *slog.Logger
}

func (h *PageHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type pageView struct {
	User *domainauth.Claims
}

// Index handles GET /, the only page reachable without signing in.
func (h *PageHandlers) Index(w http.ResponseWriter, _ *http.Request) {
	h.Renderer.Render(w, http.StatusOK, "index.html", pageView{})
}

// Protected handles GET /protected behind the session guard.
func (h *PageHandlers) Protected(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	h.Renderer.Render(w, http.StatusOK, "protected.html", pageView{User: claims})
}

// Admin handles GET /admin/ behind the admin role guard.
func (h *PageHandlers) Admin(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	h.Renderer.Render(w, http.StatusOK, "admin.html", pageView{User: claims})
}

type userInfoView struct {
	User      *domainauth.Claims
	GraphJSON string
	GraphNote string
}

// UserInfo handles GET /userinfo: shows the session's claims and, when
// enabled, the Graph /me document fetched with a silently acquired token.
func (h *PageHandlers) UserInfo(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	view := userInfoView{User: claims}

	if h.GraphEnabled && h.Graph != nil {
		view.GraphJSON, view.GraphNote = h.fetchGraphMe(r)
	}

	h.Renderer.Render(w, http.StatusOK, "userinfo.html", view)
}

// fetchGraphMe returns the pretty-printed /me document, or a human note
// when the fetch could not happen. A stale token cache is not an error
// worth a broken page; the note tells the user to sign in again.
func (h *PageHandlers) fetchGraphMe(r *http.Request) (graphJSON, note string) {
	resp, err := h.Graph.Get(r.Context(), sessionIDFromRequest(r), h.GraphMeURL)
	if err != nil {
		var upstream *domainauth.UpstreamHTTPError
		switch {
		case errors.Is(err, domainauth.ErrSilentAuthFailed):
			return "", "Your cached sign-in has expired; sign out and back in to refresh directory data."
		case errors.As(err, &upstream):
			h.logger().WarnContext(r.Context(), "graph call failed", "status", upstream.StatusCode)
			return "", fmt.Sprintf("The directory returned status %d.", upstream.StatusCode)
		default:
			h.logger().WarnContext(r.Context(), "graph call failed", "error", err)
			return "", "Directory data is unavailable right now."
		}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			h.logger().WarnContext(r.Context(), "close graph response failed", "error", closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", "Directory data is unavailable right now."
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return string(body), ""
	}
	return pretty.String(), ""
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
